package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPushInterval   = 5 * time.Second
	wsWriteTimeout   = 10 * time.Second
	wsReadLimitBytes = 4 * 1024
)

// The dashboard binds a Unix socket (or localhost in degraded mode) and
// the page is reached through the proxy's hostname, so cross-origin
// browser checks add nothing here.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams status snapshots to the page every wsPushInterval so
// it does not have to poll.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: the page never sends data, but reading is what surfaces
	// close frames and dead connections.
	conn.SetReadLimit(wsReadLimitBytes)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.pushSnapshot(ctx, conn); err != nil {
		return
	}
	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushSnapshot(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(s.snapshot(ctx))
}
