package caddy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeAdmin mimics the slice of the Caddy admin API devmesh talks to,
// including its quirks: no atomic upsert, duplicate @id rejection, and
// HTTP 200 with a null body for missing config paths.
type fakeAdmin struct {
	mu      sync.Mutex
	tlsBody string // raw /config/apps/tls/ response; "" means 404
	servers map[string]*fakeServer

	mutations []string // method+path log, for ordering assertions
}

type fakeServer struct {
	Listen []string          `json:"listen"`
	Routes []json.RawMessage `json:"routes"`
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{servers: map[string]*fakeServer{
		"srv0": {Listen: []string{":443"}},
	}}
}

func (f *fakeAdmin) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAdmin) routeCount(server, id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	srv := f.servers[server]
	if srv == nil {
		return 0
	}
	for _, raw := range srv.Routes {
		if routeID(raw) == id {
			n++
		}
	}
	return n
}

func (f *fakeAdmin) mutationLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutations...)
}

func routeID(raw json.RawMessage) string {
	var s struct {
		ID string `json:"@id"`
	}
	_ = json.Unmarshal(raw, &s)
	return s.ID
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodGet {
		f.mutations = append(f.mutations, r.Method+" "+r.URL.Path)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/config/apps/tls/":
		if f.tlsBody == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(f.tlsBody))

	case strings.HasPrefix(r.URL.Path, "/id/"):
		f.handleByID(w, r, strings.TrimPrefix(r.URL.Path, "/id/"))

	case strings.HasPrefix(r.URL.Path, "/config/apps/http/servers/"):
		f.handleServers(w, r, strings.TrimPrefix(r.URL.Path, "/config/apps/http/servers/"))

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAdmin) handleByID(w http.ResponseWriter, r *http.Request, id string) {
	for _, srv := range f.servers {
		for i, raw := range srv.Routes {
			if routeID(raw) != id {
				continue
			}
			switch r.Method {
			case http.MethodGet:
				_, _ = w.Write(raw)
			case http.MethodDelete:
				srv.Routes = append(srv.Routes[:i], srv.Routes[i+1:]...)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
			return
		}
	}
	http.Error(w, `{"error":"unknown object id '`+id+`'"}`, http.StatusNotFound)
}

func (f *fakeAdmin) handleServers(w http.ResponseWriter, r *http.Request, rest string) {
	name, sub, _ := strings.Cut(rest, "/")
	srv := f.servers[name]

	switch {
	case sub == "" && r.Method == http.MethodGet:
		// Caddy answers missing config paths with 200 and a null body.
		if srv == nil {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(srv)

	case sub == "" && r.Method == http.MethodPut:
		var created fakeServer
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.servers[name] = &created

	case sub == "routes" && r.Method == http.MethodGet:
		if srv == nil {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(srv.Routes)

	case sub == "routes" && r.Method == http.MethodPost:
		if srv == nil {
			http.Error(w, "unknown server", http.StatusNotFound)
			return
		}
		raw, err := readRaw(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, existing := range srv.Routes {
			if id := routeID(raw); id != "" && routeID(existing) == id {
				http.Error(w, "duplicate object id", http.StatusConflict)
				return
			}
		}
		srv.Routes = append(srv.Routes, raw)

	default:
		http.NotFound(w, r)
	}
}

func readRaw(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	err := json.NewDecoder(r.Body).Decode(&raw)
	return raw, err
}
