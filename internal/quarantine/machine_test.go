package quarantine

import (
	"context"
	"errors"
	"testing"
	"time"

	"warden/internal/audit"
	"warden/internal/storage"

	"go.uber.org/zap"
)

type fakeEmitter struct {
	revoked  int
	assigned int
	notices  int
	fail     bool
}

func (f *fakeEmitter) RevokeRoles(ctx context.Context, guildID, userID string) error {
	f.revoked++
	if f.fail {
		return errors.New("revoke failed")
	}
	return nil
}

func (f *fakeEmitter) AssignRole(ctx context.Context, guildID, userID, roleID string) error {
	f.assigned++
	if f.fail {
		return errors.New("assign failed")
	}
	return nil
}

func (f *fakeEmitter) PostNotice(ctx context.Context, guildID, userID string, evidence Evidence) error {
	f.notices++
	if f.fail {
		return errors.New("notice failed")
	}
	return nil
}

func testMachine(t *testing.T, emitter Emitter) (*Machine, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	auditLogger := audit.NewLogger(store, zap.NewNop())
	return NewMachine("r1", emitter, auditLogger, store), store
}

func TestApplyTransitionsOnce(t *testing.T) {
	emitter := &fakeEmitter{}
	machine, _ := testMachine(t, emitter)
	ctx := context.Background()

	evidence := Evidence{Reason: "cross-channel duplicates", MatchedChannels: 3}
	if !machine.Apply(ctx, "g1", "u1", evidence) {
		t.Fatalf("expected first apply to transition")
	}
	if machine.StateOf("g1", "u1") != StateQuarantined {
		t.Fatalf("expected quarantined state")
	}

	// Repeat signals are no-ops with no further mutations.
	if machine.Apply(ctx, "g1", "u1", evidence) {
		t.Fatalf("expected repeat apply to be a no-op")
	}
	if emitter.revoked != 1 || emitter.assigned != 1 || emitter.notices != 1 {
		t.Fatalf("expected exactly one mutation batch, got revoke=%d assign=%d notice=%d",
			emitter.revoked, emitter.assigned, emitter.notices)
	}
}

func TestApplyWithEmptyEvidence(t *testing.T) {
	emitter := &fakeEmitter{}
	machine, _ := testMachine(t, emitter)

	// Honeypot triggers carry no history samples.
	if !machine.Apply(context.Background(), "g1", "u1", Evidence{Reason: "honeypot post", ChannelID: "trap"}) {
		t.Fatalf("expected transition without samples")
	}
	if emitter.notices != 1 {
		t.Fatalf("expected notice, got %d", emitter.notices)
	}
}

func TestApplyCommitsDespiteEmitterFailure(t *testing.T) {
	emitter := &fakeEmitter{fail: true}
	machine, _ := testMachine(t, emitter)
	ctx := context.Background()

	if !machine.Apply(ctx, "g1", "u1", Evidence{Reason: "spam"}) {
		t.Fatalf("expected transition despite platform failures")
	}
	if machine.StateOf("g1", "u1") != StateQuarantined {
		t.Fatalf("state must commit before mutations run")
	}
	// A retriggered signal still short-circuits.
	if machine.Apply(ctx, "g1", "u1", Evidence{Reason: "spam"}) {
		t.Fatalf("expected repeat to be a no-op after failed mutations")
	}
}

func TestReleaseAndRetrigger(t *testing.T) {
	emitter := &fakeEmitter{}
	machine, store := testMachine(t, emitter)
	ctx := context.Background()

	if machine.Release(ctx, "g1", "u1") {
		t.Fatalf("releasing a clean user must return false")
	}

	machine.Apply(ctx, "g1", "u1", Evidence{Reason: "spam", MatchedChannels: 3})
	if !machine.Release(ctx, "g1", "u1") {
		t.Fatalf("expected release to succeed")
	}
	if machine.StateOf("g1", "u1") != StateClean {
		t.Fatalf("expected clean state after release")
	}

	events, err := store.ListQuarantineEvents(ctx, "g1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].ReleasedAt == nil {
		t.Fatalf("expected one released event, got %+v", events)
	}

	// A fresh signal after release quarantines again.
	if !machine.Apply(ctx, "g1", "u1", Evidence{Reason: "spam again"}) {
		t.Fatalf("expected re-quarantine after release")
	}
	if emitter.assigned != 2 {
		t.Fatalf("expected a second mutation batch, got %d", emitter.assigned)
	}
}

func TestStatesAreScopedPerGuild(t *testing.T) {
	emitter := &fakeEmitter{}
	machine, _ := testMachine(t, emitter)
	ctx := context.Background()

	machine.Apply(ctx, "g1", "u1", Evidence{Reason: "spam"})
	if machine.StateOf("g2", "u1") != StateClean {
		t.Fatalf("quarantine in one guild must not leak into another")
	}
}

func TestHoneypots(t *testing.T) {
	pots := NewHoneypots([]string{"c1", "", "c2"})
	if !pots.Contains("c1") || !pots.Contains("c2") {
		t.Fatalf("expected configured channels to match")
	}
	if pots.Contains("c3") || pots.Contains("") {
		t.Fatalf("unexpected honeypot match")
	}
}
