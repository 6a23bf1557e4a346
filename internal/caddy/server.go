package caddy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

// serverSpec is the minimal Caddy HTTP server object devmesh creates:
// a listen address and an initially empty route table.
type serverSpec struct {
	Listen []string    `json:"listen"`
	Routes []routeSpec `json:"routes"`
}

// HasServer reports whether a named virtual server exists on the proxy.
func (c *Client) HasServer(ctx context.Context, name string) (bool, error) {
	_, err := c.getServer(ctx, name)
	if errors.Is(err, domain.ErrServerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getServer fetches a named virtual server, or [domain.ErrServerNotFound].
//
// The admin API answers a GET for a missing config path with HTTP 200 and a
// literal "null" body rather than a 404, so a 200 alone proves nothing: the
// body must decode to an actual object before the server counts as present.
func (c *Client) getServer(ctx context.Context, name string) (map[string]json.RawMessage, error) {
	body, err := c.getRaw(ctx, "/config/apps/http/servers/"+name)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil || obj == nil {
		return nil, domain.ErrServerNotFound
	}
	return obj, nil
}

// EnsureServer creates the named virtual server with the given listen
// address and an empty route table unless a well-formed server object
// already exists under that name.
func (c *Client) EnsureServer(ctx context.Context, name, listenAddr string) error {
	exists, err := c.HasServer(ctx, name)
	if err == nil && exists {
		return nil
	}
	if err != nil {
		c.log.Debug("server existence check failed; creating", "server", name, "err", err)
	}
	spec := serverSpec{Listen: []string{listenAddr}, Routes: []routeSpec{}}
	if err := c.sendJSON(ctx, http.MethodPut, "/config/apps/http/servers/"+name, spec); err != nil {
		return &domain.RouteError{Op: "create server " + name, Err: err}
	}
	return nil
}
