package sqlite

import (
	"context"
	"time"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

// Record appends a lifecycle event to the journal. It satisfies
// [lifecycle.Journal]: recording is fire-and-forget, so a write failure is
// swallowed rather than surfaced to the controller.
func (s *Store) Record(ctx context.Context, kind, identity, dom, detail string) {
	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO events (kind, identity, domain, detail, at) VALUES (?, ?, ?, ?, ?)`,
		kind, identity, dom, detail, time.Now().UTC())
}

// RecentEvents returns up to limit journal entries, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, identity, domain, detail, at FROM events ORDER BY at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Identity, &e.Domain, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
