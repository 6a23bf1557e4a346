// Package dashboard implements the local HTTP service devmesh exposes
// through the mesh: an always-on status page for every service registered
// with the proxy, plus JSON and WebSocket APIs backing it.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/devmesh-sh/devmesh/internal/domain"
	"github.com/devmesh-sh/devmesh/internal/lifecycle"
	"github.com/devmesh-sh/devmesh/internal/status"
)

//go:embed assets/dashboard.html
var dashboardHTML []byte

const shutdownTimeout = 5 * time.Second
const eventListLimit = 50

// EventSource lists recent lifecycle journal entries. May be absent.
type EventSource interface {
	RecentEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// Server serves the dashboard page and its APIs.
type Server struct {
	agg        *status.Aggregator
	controller *lifecycle.Controller
	events     EventSource
	identity   string
	publicURL  string
	log        *slog.Logger
}

// NewServer creates a dashboard server. events may be nil, in which case
// /api/events always answers an empty list.
func NewServer(agg *status.Aggregator, controller *lifecycle.Controller, events EventSource, identity, publicURL string, logger *slog.Logger) *Server {
	return &Server{
		agg:        agg,
		controller: controller,
		events:     events,
		identity:   identity,
		publicURL:  publicURL,
		log:        logger,
	}
}

// agentInfo is the dashboard's health signal for the agent itself,
// including whether it is running registered (active) or on the fallback
// port (degraded).
type agentInfo struct {
	Identity  string `json:"identity"`
	State     string `json:"state"`
	Domain    string `json:"domain,omitempty"`
	PublicURL string `json:"public_url"`
}

// statusPayload is the full /api/status (and WebSocket frame) document.
type statusPayload struct {
	domain.MeshStatus
	Agent agentInfo `json:"agent"`
}

func (s *Server) snapshot(ctx context.Context) statusPayload {
	return statusPayload{
		MeshStatus: s.agg.Snapshot(ctx),
		Agent: agentInfo{
			Identity:  s.identity,
			State:     s.controller.State(),
			Domain:    s.controller.Domain(),
			PublicURL: s.publicURL,
		},
	}
}

// Handler returns the dashboard's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	mux.HandleFunc("GET /", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(dashboardHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot(r.Context()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := []eventPayload{}
	if s.events != nil {
		list, err := s.events.RecentEvents(r.Context(), eventListLimit)
		if err != nil {
			s.log.Warn("event journal read failed", "err", err)
		}
		for _, e := range list {
			events = append(events, eventPayload{
				Kind:     e.Kind,
				Identity: e.Identity,
				Domain:   e.Domain,
				Detail:   e.Detail,
				At:       e.At,
			})
		}
	}
	writeJSON(w, events)
}

type eventPayload struct {
	Kind     string    `json:"kind"`
	Identity string    `json:"identity"`
	Domain   string    `json:"domain,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the dashboard on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
