// Package status aggregates the proxy's route table, upstream counters,
// metrics, and TLS/DNS config into one dashboard snapshot.
package status

import (
	"context"
	"os"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/domain"
	"github.com/devmesh-sh/devmesh/internal/netutil"
)

// Aggregator reads mesh-wide state from the proxy admin API. It keeps no
// cache: every snapshot round-trips, so a freshly registered or torn-down
// service shows up immediately.
type Aggregator struct {
	proxy  *caddy.Client
	server string
}

// New creates an Aggregator reading routes from the named Caddy server.
func New(proxy *caddy.Client, server string) *Aggregator {
	return &Aggregator{proxy: proxy, server: server}
}

// Snapshot assembles the current mesh status. Individual read failures
// degrade to empty sections rather than failing the whole snapshot; the
// dashboard stays useful even while the proxy is restarting.
func (a *Aggregator) Snapshot(ctx context.Context) domain.MeshStatus {
	routes, _ := a.proxy.ListRoutes(ctx, a.server)
	upstreams, _ := a.proxy.Upstreams(ctx)
	metricsText, _ := a.proxy.MetricsText(ctx)
	tlsSubjects, _ := a.proxy.TLSSubjects(ctx)
	dns, _ := a.proxy.DynamicDNS(ctx)

	health := ParseUpstreamHealth(metricsText)
	byAddr := make(map[string]caddy.Upstream, len(upstreams))
	for _, u := range upstreams {
		byAddr[u.Address] = u
	}

	services := make([]domain.ServiceStatus, 0, len(routes))
	for _, r := range routes {
		id := r.ID
		if id == "" {
			id = "unknown"
		}
		hosts := make([]string, 0, len(r.Hosts))
		for _, h := range r.Hosts {
			if n := netutil.NormalizeHost(h); n != "" {
				hosts = append(hosts, n)
			}
		}
		sockFile := netutil.SocketPathFromDial(r.Dial)
		sockExists := false
		if sockFile != "" {
			_, statErr := os.Stat(sockFile)
			sockExists = statErr == nil
		}
		// Metrics are the authority on health; for upstreams Caddy has
		// not probed yet, socket existence is the best available guess.
		healthy, known := health[r.Dial]
		if !known {
			healthy = sockExists
		}
		up := byAddr[r.Dial]
		services = append(services, domain.ServiceStatus{
			ID:           id,
			Hosts:        hosts,
			SocketPath:   sockFile,
			SocketExists: sockExists,
			Healthy:      healthy,
			Requests:     up.NumRequests,
			Fails:        up.Fails,
		})
	}

	if dns.Domains == nil {
		dns.Domains = map[string][]string{}
	}
	return domain.MeshStatus{
		Services:   services,
		TLSDomains: tlsSubjects,
		DNS:        dns,
	}
}
