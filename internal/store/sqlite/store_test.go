package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal", "devmesh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecentEvents(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	s.Record(ctx, domain.EventRegistered, "my-app", "dev.example.com", "")
	s.Record(ctx, domain.EventDeregistered, "my-app", "dev.example.com", "")

	events, err := s.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Newest first.
	if events[0].Kind != domain.EventDeregistered {
		t.Fatalf("first event = %q", events[0].Kind)
	}
	if events[1].Kind != domain.EventRegistered {
		t.Fatalf("second event = %q", events[1].Kind)
	}
	if events[0].Identity != "my-app" || events[0].Domain != "dev.example.com" {
		t.Fatalf("event fields: %+v", events[0])
	}
	if events[0].At.IsZero() {
		t.Fatal("event timestamp missing")
	}
}

func TestRecentEventsLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for range 5 {
		s.Record(ctx, domain.EventDegraded, "my-app", "", "proxy unavailable")
	}

	events, err := s.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("limit not applied: %d events", len(events))
	}
}

func TestOpenReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "devmesh.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Record(context.Background(), domain.EventRegistered, "a", "d", "")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()
	events, err := s2.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("events did not survive reopen: %d", len(events))
	}
}
