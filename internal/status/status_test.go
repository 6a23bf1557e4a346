package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/devmesh-sh/devmesh/internal/caddy"
	"github.com/devmesh-sh/devmesh/internal/log"
)

func TestSnapshot(t *testing.T) {
	t.Parallel()

	sockDir := t.TempDir()
	appSock := filepath.Join(sockDir, "my-app.sock")
	if err := os.WriteFile(appSock, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	ghostSock := filepath.Join(sockDir, "ghost.sock") // never created

	mux := http.NewServeMux()
	mux.HandleFunc("/config/apps/http/servers/srv0/routes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"@id":"my-app","match":[{"host":["my-app.dev.example.com"]}],"handle":[{"handler":"reverse_proxy","upstreams":[{"dial":"unix/%s"}]}]},
			{"@id":"ghost","match":[{"host":["ghost.dev.example.com"]}],"handle":[{"handler":"reverse_proxy","upstreams":[{"dial":"unix/%s"}]}]}
		]`, appSock, ghostSock)
	})
	mux.HandleFunc("/reverse_proxy/upstreams", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"address":"unix/%s","num_requests":7,"fails":1}]`, appSock)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "caddy_reverse_proxy_upstreams_healthy{upstream=\"unix/%s\"} 1\n", appSock)
	})
	mux.HandleFunc("/config/apps/tls/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"certificates":{"automate":["*.dev.example.com"]}}`)
	})
	mux.HandleFunc("/config/apps/dynamic_dns/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"domains":{"example.com":["dev"]},"versions":{"ipv4":true}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	agg := New(caddy.New(srv.URL, log.New("error")), "srv0")
	snap := agg.Snapshot(context.Background())

	if len(snap.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(snap.Services))
	}

	app := snap.Services[0]
	if app.ID != "my-app" {
		t.Fatalf("service order: %q", app.ID)
	}
	if !app.Healthy || !app.SocketExists {
		t.Fatalf("my-app should be healthy with socket: %+v", app)
	}
	if app.SocketPath != appSock {
		t.Fatalf("socket path = %q", app.SocketPath)
	}
	if app.Requests != 7 || app.Fails != 1 {
		t.Fatalf("counters = %d/%d", app.Requests, app.Fails)
	}

	// ghost has no metrics entry and no socket file: health falls back to
	// socket existence, i.e. unhealthy.
	ghost := snap.Services[1]
	if ghost.Healthy || ghost.SocketExists {
		t.Fatalf("ghost should be down: %+v", ghost)
	}

	if len(snap.TLSDomains) != 1 || snap.TLSDomains[0] != "*.dev.example.com" {
		t.Fatalf("tls = %v", snap.TLSDomains)
	}
	if !snap.DNS.IPv4 || len(snap.DNS.Domains["example.com"]) != 1 {
		t.Fatalf("dns = %+v", snap.DNS)
	}
}

func TestSnapshotProxyDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	snap := New(caddy.New(url, log.New("error")), "srv0").Snapshot(context.Background())
	if len(snap.Services) != 0 {
		t.Fatalf("down proxy yielded services: %+v", snap.Services)
	}
	if snap.DNS.Domains == nil {
		t.Fatal("DNS domains should default to an empty map")
	}
}
