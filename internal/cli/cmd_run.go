package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/config"
	"github.com/devmesh-sh/devmesh/internal/dashboard"
	"github.com/devmesh-sh/devmesh/internal/debughttp"
	"github.com/devmesh-sh/devmesh/internal/lifecycle"
	ilog "github.com/devmesh-sh/devmesh/internal/log"
	"github.com/devmesh-sh/devmesh/internal/status"
	"github.com/devmesh-sh/devmesh/internal/store/sqlite"
)

const stopTimeout = 10 * time.Second

func runAgent(ctx context.Context, args []string) int {
	base, err := baseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run error:", err)
		return 2
	}
	cfg, err := config.ParseAgentFlags("run", args, base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run error:", err)
		return 2
	}

	logger := ilog.New(cfg.LogLevel)
	if err := debughttp.Start(ctx, cfg.PprofListen, logger); err != nil {
		fmt.Fprintln(os.Stderr, "run error: pprof:", err)
		return 2
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	identity := lifecycle.ResolveIdentity(wd, cfg.Identity)

	proxy := caddy.New(cfg.AdminURL, logger)

	var journal lifecycle.Journal
	var events dashboard.EventSource
	if cfg.DBPath != config.JournalDisabled {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			// History is a convenience; the agent runs fine without it.
			logger.Warn("event journal unavailable", "path", cfg.DBPath, "err", err)
		} else {
			defer func() { _ = store.Close() }()
			journal = store
			events = store
		}
	}

	ctrl := lifecycle.New(lifecycle.Config{
		Identity:         identity,
		SockDir:          cfg.SockDir,
		FallbackPort:     cfg.FallbackPort,
		Server:           cfg.Server,
		Tidewave:         cfg.Tidewave,
		TidewaveServer:   cfg.TidewaveServer,
		TidewaveListen:   cfg.TidewaveListen,
		TidewaveUpstream: cfg.TidewaveUpstream,
	}, proxy, journal, logger)

	listenCfg := ctrl.OnStart(ctx, lifecycle.TCPFallback(cfg.FallbackPort))
	ln, err := listenCfg.Listen()
	if err != nil && listenCfg.Network == "unix" {
		// The mesh registration can stand even if the socket bind fails;
		// the service must still come up somewhere.
		logger.Error("socket bind failed; falling back to TCP", "path", listenCfg.Address, "err", err)
		listenCfg = lifecycle.TCPFallback(cfg.FallbackPort)
		ln, err = listenCfg.Listen()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "run error: listen:", err)
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		ctrl.OnStop(stopCtx)
		return 1
	}

	agg := status.New(proxy, cfg.Server)
	srv := dashboard.NewServer(agg, ctrl, events, identity, listenCfg.PublicURL, logger)
	logger.Info("dashboard ready", "url", listenCfg.PublicURL)

	serveErr := srv.Serve(ctx, ln)

	// ctx is already canceled by the signal at this point; shutdown gets
	// its own deadline so a hung proxy cannot wedge process exit.
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	ctrl.OnStop(stopCtx)
	if listenCfg.Network == "unix" {
		_ = os.Remove(listenCfg.Address)
	}

	if serveErr != nil {
		fmt.Fprintln(os.Stderr, "run error:", serveErr)
		return 1
	}
	return 0
}
