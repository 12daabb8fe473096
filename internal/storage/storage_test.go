package storage

import (
	"context"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestAuditLogRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	entry := AuditLog{
		GuildID:   "g1",
		UserID:    "u1",
		Level:     "CRIT",
		Event:     "quarantine",
		Details:   "reason=spam channels=3",
		CreatedAt: now,
	}
	if err := store.AddAuditLog(ctx, entry); err != nil {
		t.Fatalf("add audit log: %v", err)
	}

	logs, err := store.ListAuditLogs(ctx, "g1", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != "quarantine" || logs[0].Level != "CRIT" {
		t.Fatalf("unexpected logs: %+v", logs)
	}

	// Other guilds see nothing.
	logs, err = store.ListAuditLogs(ctx, "g2", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs for other guild, got %d", len(logs))
	}
}

func TestQuarantineEventRelease(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	id, err := store.AddQuarantineEvent(ctx, QuarantineEvent{
		GuildID:         "g1",
		UserID:          "u1",
		Reason:          "cross-channel duplicates",
		MatchedChannels: 3,
		CreatedAt:       now,
	})
	if err != nil {
		t.Fatalf("add quarantine event: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}

	events, err := store.ListQuarantineEvents(ctx, "g1", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].ReleasedAt != nil {
		t.Fatalf("expected one open event, got %+v", events)
	}

	if err := store.MarkReleased(ctx, "g1", "u1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark released: %v", err)
	}
	events, err = store.ListQuarantineEvents(ctx, "g1", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].ReleasedAt == nil {
		t.Fatalf("expected released event, got %+v", events)
	}
}

func TestStarboardDedupe(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	seen, err := store.HasStarboardEntry(ctx, "m1")
	if err != nil {
		t.Fatalf("has entry: %v", err)
	}
	if seen {
		t.Fatalf("expected no entry yet")
	}

	if err := store.AddStarboardEntry(ctx, "m1", "b1", now); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := store.AddStarboardEntry(ctx, "m1", "b2", now); err != nil {
		t.Fatalf("duplicate add should be ignored: %v", err)
	}

	seen, err = store.HasStarboardEntry(ctx, "m1")
	if err != nil {
		t.Fatalf("has entry: %v", err)
	}
	if !seen {
		t.Fatalf("expected entry recorded")
	}

	last, err := store.LastStarboardEntry(ctx)
	if err != nil {
		t.Fatalf("last entry: %v", err)
	}
	if last != "b1" {
		t.Fatalf("expected first board message kept, got %q", last)
	}
}
