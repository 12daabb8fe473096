package analytics

import (
	"context"
	"testing"
	"time"

	"warden/internal/storage"
)

func TestReport(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	now := time.Now()

	logs := []storage.AuditLog{
		{GuildID: "g1", UserID: "u1", Level: "CRIT", Event: "quarantine", CreatedAt: now},
		{GuildID: "g1", UserID: "u2", Level: "WARN", Event: "link_burst", CreatedAt: now},
		{GuildID: "g1", UserID: "u1", Level: "INFO", Event: "quarantine_release", CreatedAt: now},
	}
	for _, log := range logs {
		if err := store.AddAuditLog(ctx, log); err != nil {
			t.Fatalf("add audit log: %v", err)
		}
	}

	if _, err := store.AddQuarantineEvent(ctx, storage.QuarantineEvent{GuildID: "g1", UserID: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if _, err := store.AddQuarantineEvent(ctx, storage.QuarantineEvent{GuildID: "g1", UserID: "u2", CreatedAt: now}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if err := store.MarkReleased(ctx, "g1", "u1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark released: %v", err)
	}

	report, err := New(store).Report(ctx, "g1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Total != 3 {
		t.Fatalf("expected 3 audit events, got %d", report.Total)
	}
	if report.ByLevel["CRIT"] != 1 || report.ByLevel["WARN"] != 1 || report.ByLevel["INFO"] != 1 {
		t.Fatalf("unexpected level counts: %v", report.ByLevel)
	}
	if report.Quarantines != 2 || report.Released != 1 {
		t.Fatalf("expected 2 quarantines 1 released, got %d/%d", report.Quarantines, report.Released)
	}
}
