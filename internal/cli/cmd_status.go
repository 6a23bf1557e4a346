package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/config"
	ilog "github.com/devmesh-sh/devmesh/internal/log"
	"github.com/devmesh-sh/devmesh/internal/status"
)

func runStatus(ctx context.Context, args []string) int {
	base, err := baseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "status error:", err)
		return 2
	}
	cfg, jsonOut, err := config.ParseStatusFlags(args, base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "status error:", err)
		return 2
	}

	proxy := caddy.New(cfg.AdminURL, ilog.New("error"))
	snap := status.New(proxy, cfg.Server).Snapshot(ctx)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			fmt.Fprintln(os.Stderr, "status error:", err)
			return 1
		}
		return 0
	}

	if len(snap.Services) == 0 {
		fmt.Println("no services registered")
	}
	for _, s := range snap.Services {
		state := "down"
		if s.Healthy {
			state = "healthy"
			if !s.SocketExists && s.SocketPath != "" {
				state = "no socket"
			}
		}
		host := "-"
		if len(s.Hosts) > 0 {
			host = s.Hosts[0]
		}
		fmt.Printf("%-20s %-10s https://%s  (%d reqs, %d fails)\n", s.ID, state, host, s.Requests, s.Fails)
	}
	if len(snap.TLSDomains) > 0 {
		fmt.Println("tls:", strings.Join(snap.TLSDomains, ", "))
	}
	return 0
}
