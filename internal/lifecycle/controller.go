// Package lifecycle implements the startup/shutdown reconciliation of one
// local service against the Caddy proxy: discover the wildcard domain,
// replace any stale route registration, point the service's listener at
// its Unix socket, and tear the registration down symmetrically on exit.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/domain"
	"github.com/devmesh-sh/devmesh/internal/netutil"
)

// TidewavePrefix derives the secondary route identity from the primary
// one, e.g. "my-app" -> "tidewave-my-app".
const TidewavePrefix = "tidewave-"

// Config parameterizes one controller. One controller value manages
// exactly one service registration for the lifetime of the process.
type Config struct {
	Identity     string // resolved route identity, see ResolveIdentity
	SockDir      string // directory holding per-service sockets
	FallbackPort int    // TCP port used when the proxy is unavailable
	Server       string // primary Caddy server name, usually "srv0"

	Tidewave         bool   // also register the tidewave companion route
	TidewaveServer   string // auxiliary Caddy server name
	TidewaveListen   string // listen address for the auxiliary server
	TidewaveUpstream string // host:port of the tidewave upstream
}

// Journal receives lifecycle events for the dashboard history. Recording
// is fire-and-forget; implementations must not fail the caller.
type Journal interface {
	Record(ctx context.Context, kind, identity, dom, detail string)
}

// Controller drives the Starting -> Active|Degraded -> Stopped state
// machine. OnStart and OnStop are each called at most once, from the
// process's own start and stop, so no two reconciliation rounds for the
// same identity ever overlap.
type Controller struct {
	cfg     Config
	proxy   *caddy.Client
	journal Journal
	log     *slog.Logger

	mu     sync.Mutex
	state  string
	domain string // set once during OnStart, read once during OnStop
}

// New creates a Controller. journal may be nil.
func New(cfg Config, proxy *caddy.Client, journal Journal, logger *slog.Logger) *Controller {
	if cfg.Server == "" {
		cfg.Server = "srv0"
	}
	if cfg.TidewaveServer == "" {
		cfg.TidewaveServer = "tidewave"
	}
	if cfg.TidewaveListen == "" {
		cfg.TidewaveListen = ":4443"
	}
	return &Controller{
		cfg:     cfg,
		proxy:   proxy,
		journal: journal,
		log:     logger,
		state:   domain.StateStarting,
	}
}

// State returns the controller's current lifecycle state. The dashboard
// exposes it as a health signal.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Domain returns the discovered base domain, or "" in degraded mode.
func (c *Controller) Domain() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.domain
}

// SocketPath returns the socket the service binds when active.
func (c *Controller) SocketPath() string {
	return netutil.SocketPath(c.cfg.SockDir, c.cfg.Identity)
}

// OnStart runs the Starting transition and returns the listener config
// the service should bind: the Unix socket plus https URL when the proxy
// is reachable, fallback unchanged when it is not.
//
// Only domain discovery decides the branch. Every later proxy call is
// best-effort: a failed route registration is logged loudly and recorded
// in the journal, but the service still starts. It stays reachable on
// its fallback port, and the listener mutation has already happened, so
// the state remains Active rather than reverting to Degraded.
func (c *Controller) OnStart(ctx context.Context, fallback ListenerConfig) ListenerConfig {
	dom, err := c.proxy.DiscoverDomain(ctx)
	if err != nil {
		c.log.Info("proxy unavailable; serving on fallback port",
			"addr", fallback.Address, "err", err)
		c.setState(domain.StateDegraded, "")
		c.record(ctx, domain.EventDegraded, "", "proxy unavailable")
		return fallback
	}

	sockPath := c.SocketPath()
	if err := os.MkdirAll(c.cfg.SockDir, 0o755); err != nil {
		c.log.Error("create socket dir failed", "dir", c.cfg.SockDir, "err", err)
		c.setState(domain.StateDegraded, "")
		return fallback
	}
	if err := removeStaleSocket(sockPath); err != nil {
		c.log.Error("remove stale socket failed", "path", sockPath, "err", err)
		c.setState(domain.StateDegraded, "")
		return fallback
	}

	// A previous run of this same service may have crashed without
	// deregistering; clear any stale route before re-registering.
	if err := c.proxy.RemoveRoute(ctx, c.cfg.Identity); err != nil {
		c.log.Debug("stale route cleanup skipped", "id", c.cfg.Identity, "err", err)
	}

	lc := ListenerConfig{
		Network:   "unix",
		Address:   sockPath,
		PublicURL: "https://" + c.cfg.Identity + "." + dom,
	}

	detail := ""
	if err := c.proxy.EnsureRoute(ctx, c.cfg.Server, caddy.Route{
		ID:    c.cfg.Identity,
		Hosts: []string{c.cfg.Identity + "." + dom},
		Dial:  netutil.UnixDialAddr(sockPath),
	}); err != nil {
		c.log.Error("route registration failed; service reachable only on fallback port", "err", err)
		detail = err.Error()
	}

	if c.cfg.Tidewave {
		if err := c.reconcileTidewave(ctx, dom); err != nil {
			// Degraded-feature failure, not a fatal one.
			c.log.Warn("tidewave route registration failed", "err", err)
		}
	}

	c.setState(domain.StateActive, dom)
	c.record(ctx, domain.EventRegistered, dom, detail)
	c.log.Info("registered with proxy", "url", lc.PublicURL, "socket", sockPath)
	return lc
}

// reconcileTidewave ensures the auxiliary server exists, then registers
// the companion route. The tidewave upstream enforces origin checks, so
// the route rewrites the outbound Origin header to match it.
func (c *Controller) reconcileTidewave(ctx context.Context, dom string) error {
	if err := c.proxy.EnsureServer(ctx, c.cfg.TidewaveServer, c.cfg.TidewaveListen); err != nil {
		return err
	}
	id := TidewavePrefix + c.cfg.Identity
	return c.proxy.EnsureRoute(ctx, c.cfg.TidewaveServer, caddy.Route{
		ID:    id,
		Hosts: []string{id + "." + dom},
		Dial:  c.cfg.TidewaveUpstream,
		SetRequestHeaders: map[string][]string{
			"Origin": {"http://" + c.cfg.TidewaveUpstream},
		},
	})
}

// OnStop runs the shutdown transition. It deregisters both routes when a
// domain was recorded during OnStart and does nothing at all otherwise:
// in degraded mode nothing was ever registered, and shutdown must never
// block or fail on a proxy that has since gone away.
func (c *Controller) OnStop(ctx context.Context) {
	c.mu.Lock()
	dom := c.domain
	c.state = domain.StateStopped
	c.mu.Unlock()

	if dom == "" {
		return
	}

	// Removal errors are expected here and never fatal.
	if err := c.proxy.RemoveRoute(ctx, c.cfg.Identity); err != nil {
		c.log.Debug("deregister skipped", "id", c.cfg.Identity, "err", err)
	}
	if c.cfg.Tidewave {
		id := TidewavePrefix + c.cfg.Identity
		if err := c.proxy.RemoveRoute(ctx, id); err != nil {
			c.log.Debug("deregister skipped", "id", id, "err", err)
		}
	}
	c.record(ctx, domain.EventDeregistered, dom, "")
	c.log.Info("deregistered from proxy", "id", c.cfg.Identity)
}

func (c *Controller) setState(state, dom string) {
	c.mu.Lock()
	c.state = state
	c.domain = dom
	c.mu.Unlock()
}

func (c *Controller) record(ctx context.Context, kind, dom, detail string) {
	if c.journal == nil {
		return
	}
	c.journal.Record(ctx, kind, c.cfg.Identity, dom, detail)
}
