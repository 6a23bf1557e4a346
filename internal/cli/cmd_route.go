package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/config"
	"github.com/devmesh-sh/devmesh/internal/domain"
	"github.com/devmesh-sh/devmesh/internal/lifecycle"
	ilog "github.com/devmesh-sh/devmesh/internal/log"
	"github.com/devmesh-sh/devmesh/internal/netutil"
)

// runRegister is the scripting entry for the reconcile half of the
// lifecycle: it registers the route(s) without binding the socket, so an
// externally managed service can claim its hostname up front.
func runRegister(ctx context.Context, args []string) int {
	cfg, identity, proxy, code := routeSetup("register", args)
	if code != 0 {
		return code
	}

	dom, err := proxy.DiscoverDomain(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrProxyUnavailable) {
			fmt.Fprintln(os.Stderr, "register: proxy unavailable at", cfg.AdminURL)
			return 1
		}
		fmt.Fprintln(os.Stderr, "register error:", err)
		return 1
	}

	sockPath := netutil.SocketPath(cfg.SockDir, identity)
	if err := proxy.EnsureRoute(ctx, cfg.Server, caddy.Route{
		ID:    identity,
		Hosts: []string{identity + "." + dom},
		Dial:  netutil.UnixDialAddr(sockPath),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "register error:", err)
		return 1
	}
	fmt.Printf("registered https://%s.%s -> %s\n", identity, dom, sockPath)

	if cfg.Tidewave {
		if err := proxy.EnsureServer(ctx, cfg.TidewaveServer, cfg.TidewaveListen); err != nil {
			fmt.Fprintln(os.Stderr, "register error: tidewave:", err)
			return 1
		}
		id := lifecycle.TidewavePrefix + identity
		if err := proxy.EnsureRoute(ctx, cfg.TidewaveServer, caddy.Route{
			ID:    id,
			Hosts: []string{id + "." + dom},
			Dial:  cfg.TidewaveUpstream,
			SetRequestHeaders: map[string][]string{
				"Origin": {"http://" + cfg.TidewaveUpstream},
			},
		}); err != nil {
			fmt.Fprintln(os.Stderr, "register error: tidewave:", err)
			return 1
		}
		fmt.Printf("registered https://%s.%s -> %s\n", id, dom, cfg.TidewaveUpstream)
	}
	return 0
}

// runDeregister removes the route(s). Removal of routes that were never
// registered is a no-op, matching the lifecycle teardown semantics.
func runDeregister(ctx context.Context, args []string) int {
	cfg, identity, proxy, code := routeSetup("deregister", args)
	if code != 0 {
		return code
	}

	if err := proxy.RemoveRoute(ctx, identity); err == nil {
		fmt.Println("deregistered", identity)
	}
	if cfg.Tidewave {
		id := lifecycle.TidewavePrefix + identity
		if err := proxy.RemoveRoute(ctx, id); err == nil {
			fmt.Println("deregistered", id)
		}
	}
	return 0
}

func routeSetup(name string, args []string) (config.RunConfig, string, *caddy.Client, int) {
	base, err := baseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, name+" error:", err)
		return config.RunConfig{}, "", nil, 2
	}
	cfg, err := config.ParseAgentFlags(name, args, base)
	if err != nil {
		fmt.Fprintln(os.Stderr, name+" error:", err)
		return config.RunConfig{}, "", nil, 2
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	identity := lifecycle.ResolveIdentity(wd, cfg.Identity)
	return cfg, identity, caddy.New(cfg.AdminURL, ilog.New(cfg.LogLevel)), 0
}
