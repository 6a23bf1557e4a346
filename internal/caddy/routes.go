package caddy

import (
	"context"
	"net/http"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

// Route is the declarative record devmesh submits to the proxy: a unique
// ID, the hostnames to match, and the upstream dial address (either Caddy
// unix syntax "unix//path/to.sock" or "host:port"). SetRequestHeaders, when
// non-nil, rewrites outbound request headers before they reach the upstream.
type Route struct {
	ID                string
	Hosts             []string
	Dial              string
	SetRequestHeaders map[string][]string
}

// Wire representation of a Caddy reverse_proxy route.
type routeSpec struct {
	ID     string         `json:"@id"`
	Match  []routeMatch   `json:"match"`
	Handle []routeHandler `json:"handle"`
}

type routeMatch struct {
	Host []string `json:"host"`
}

type routeHandler struct {
	Handler   string         `json:"handler"`
	Upstreams []upstreamSpec `json:"upstreams,omitempty"`
	Headers   *headerRewrite `json:"headers,omitempty"`
}

type upstreamSpec struct {
	Dial string `json:"dial"`
}

type headerRewrite struct {
	Request *headerOps `json:"request,omitempty"`
}

type headerOps struct {
	Set map[string][]string `json:"set,omitempty"`
}

func (r Route) spec() routeSpec {
	h := routeHandler{
		Handler:   "reverse_proxy",
		Upstreams: []upstreamSpec{{Dial: r.Dial}},
	}
	if len(r.SetRequestHeaders) > 0 {
		h.Headers = &headerRewrite{Request: &headerOps{Set: r.SetRequestHeaders}}
	}
	return routeSpec{
		ID:     r.ID,
		Match:  []routeMatch{{Host: r.Hosts}},
		Handle: []routeHandler{h},
	}
}

func (s routeSpec) route() Route {
	r := Route{ID: s.ID}
	for _, m := range s.Match {
		r.Hosts = append(r.Hosts, m.Host...)
	}
	for _, h := range s.Handle {
		for _, u := range h.Upstreams {
			r.Dial = u.Dial
		}
		if h.Headers != nil && h.Headers.Request != nil {
			r.SetRequestHeaders = h.Headers.Request.Set
		}
	}
	return r
}

// EnsureRoute registers route r in the named server, replacing any stale
// registration left under the same ID. The admin API has no atomic upsert,
// so this is delete-then-create: the delete must finish before the create
// is attempted or the proxy would reject the duplicate ID. A failed delete
// (typically "not found" on first-ever registration) is expected and
// intentionally discarded.
//
// Calling EnsureRoute twice with the same route leaves exactly one route
// registered under r.ID.
func (c *Client) EnsureRoute(ctx context.Context, server string, r Route) error {
	if err := c.RemoveRoute(ctx, r.ID); err != nil {
		c.log.Debug("pre-create route delete skipped", "id", r.ID, "err", err)
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/config/apps/http/servers/"+server+"/routes", r.spec()); err != nil {
		return &domain.RouteError{ID: r.ID, Op: "create route", Err: err}
	}
	return nil
}

// RemoveRoute deletes the route registered under id. Deleting a route that
// was never registered returns an error the caller is expected to discard;
// shutdown paths treat every removal as best-effort.
func (c *Client) RemoveRoute(ctx context.Context, id string) error {
	if err := c.sendJSON(ctx, http.MethodDelete, "/id/"+id, nil); err != nil {
		return &domain.RouteError{ID: id, Op: "delete route", Err: err}
	}
	return nil
}

// GetRoute fetches the route registered under id, or
// [domain.ErrRouteNotFound] if the proxy does not know the ID.
func (c *Client) GetRoute(ctx context.Context, id string) (Route, error) {
	var s routeSpec
	if err := c.getJSON(ctx, "/id/"+id, &s); err != nil {
		return Route{}, domain.ErrRouteNotFound
	}
	if s.ID == "" {
		return Route{}, domain.ErrRouteNotFound
	}
	return s.route(), nil
}

// ListRoutes returns every route configured in the named server.
func (c *Client) ListRoutes(ctx context.Context, server string) ([]Route, error) {
	var specs []routeSpec
	if err := c.getJSON(ctx, "/config/apps/http/servers/"+server+"/routes", &specs); err != nil {
		return nil, err
	}
	routes := make([]Route, 0, len(specs))
	for _, s := range specs {
		routes = append(routes, s.route())
	}
	return routes, nil
}
