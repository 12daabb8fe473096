package quarantine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"warden/internal/audit"
	"warden/internal/history"
	"warden/internal/storage"
)

type State int

const (
	StateClean State = iota
	StateQuarantined
)

// Evidence describes what triggered a quarantine. Samples are the history
// records that matched, for the staff notice.
type Evidence struct {
	Reason          string
	MatchedChannels int
	Samples         []history.Record
	ChannelID       string
	MessageID       string
}

// Emitter applies the platform-side mutations of a quarantine. Each call
// is independently fallible; the machine never retries and never rolls
// back its internal transition when one fails.
type Emitter interface {
	RevokeRoles(ctx context.Context, guildID, userID string) error
	AssignRole(ctx context.Context, guildID, userID, roleID string) error
	PostNotice(ctx context.Context, guildID, userID string, evidence Evidence) error
}

// Machine holds per-user quarantine state for the process lifetime. A
// restart resets everyone to Clean; that is accepted, the durable record
// lives in the quarantine_events table.
type Machine struct {
	mu      sync.Mutex
	states  map[string]State
	roleID  string
	emitter Emitter
	audit   *audit.Logger
	store   *storage.Store
}

func NewMachine(roleID string, emitter Emitter, auditLogger *audit.Logger, store *storage.Store) *Machine {
	return &Machine{
		states:  make(map[string]State),
		roleID:  roleID,
		emitter: emitter,
		audit:   auditLogger,
		store:   store,
	}
}

func (m *Machine) StateOf(guildID, userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[stateKey(guildID, userID)]
}

// Apply processes a spam signal. A Clean user transitions to Quarantined
// and exactly one mutation batch is emitted; a user already Quarantined
// is a logged no-op. Returns true when a transition happened.
//
// The internal transition commits before any mutation is attempted, so a
// platform failure cannot cause repeated re-detection; failures are
// surfaced through the audit log instead.
func (m *Machine) Apply(ctx context.Context, guildID, userID string, evidence Evidence) bool {
	key := stateKey(guildID, userID)

	m.mu.Lock()
	if m.states[key] == StateQuarantined {
		m.mu.Unlock()
		m.audit.Log(ctx, audit.LevelInfo, guildID, userID, "quarantine_repeat", evidence.Reason)
		return false
	}
	m.states[key] = StateQuarantined
	m.mu.Unlock()

	m.audit.Log(ctx, audit.LevelCrit, guildID, userID, "quarantine", formatEvidence(evidence))
	if m.store != nil {
		if _, err := m.store.AddQuarantineEvent(ctx, storage.QuarantineEvent{
			GuildID:         guildID,
			UserID:          userID,
			Reason:          evidence.Reason,
			MatchedChannels: evidence.MatchedChannels,
			CreatedAt:       time.Now(),
		}); err != nil {
			m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "quarantine_persist_failed", err.Error())
		}
	}

	m.emit(ctx, guildID, userID, evidence)
	return true
}

// Release is the moderator path back to Clean. It returns false when the
// user was not quarantined.
func (m *Machine) Release(ctx context.Context, guildID, userID string) bool {
	key := stateKey(guildID, userID)

	m.mu.Lock()
	if m.states[key] != StateQuarantined {
		m.mu.Unlock()
		return false
	}
	delete(m.states, key)
	m.mu.Unlock()

	m.audit.Log(ctx, audit.LevelInfo, guildID, userID, "quarantine_release", "released by moderator")
	if m.store != nil {
		if err := m.store.MarkReleased(ctx, guildID, userID, time.Now()); err != nil {
			m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "quarantine_persist_failed", err.Error())
		}
	}
	return true
}

func (m *Machine) emit(ctx context.Context, guildID, userID string, evidence Evidence) {
	if m.emitter == nil {
		return
	}
	if err := m.emitter.RevokeRoles(ctx, guildID, userID); err != nil {
		m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "mutation_failed", "revoke roles: "+err.Error())
	}
	if m.roleID == "" {
		m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "mutation_failed", "quarantine role not configured")
	} else if err := m.emitter.AssignRole(ctx, guildID, userID, m.roleID); err != nil {
		m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "mutation_failed", "assign role: "+err.Error())
	}
	if err := m.emitter.PostNotice(ctx, guildID, userID, evidence); err != nil {
		m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "mutation_failed", "post notice: "+err.Error())
	}
}

func formatEvidence(evidence Evidence) string {
	parts := []string{"reason=" + evidence.Reason}
	if evidence.MatchedChannels > 0 {
		parts = append(parts, fmt.Sprintf("channels=%d", evidence.MatchedChannels))
	}
	if evidence.ChannelID != "" {
		parts = append(parts, "channel="+evidence.ChannelID)
	}
	return strings.Join(parts, " ")
}

func stateKey(guildID, userID string) string {
	return guildID + ":" + userID
}
