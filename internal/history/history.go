package history

import (
	"strings"
	"sync"
	"time"
)

const (
	// Hard bounds keeping memory flat regardless of traffic.
	maxRecordsPerUser = 50
	maxContentLength  = 200
)

// Record is one observed message, normalized for comparison. Records are
// immutable once stored.
type Record struct {
	ChannelID string
	Content   string
	Timestamp time.Time
}

// Store keeps a bounded, time-windowed message history per user. Expired
// records are dropped lazily on read and eagerly by PurgeExpired.
type Store struct {
	mu        sync.Mutex
	retention time.Duration
	users     map[string][]Record
}

func NewStore(retention time.Duration) *Store {
	return &Store{
		retention: retention,
		users:     make(map[string][]Record),
	}
}

// Normalize lowercases, collapses whitespace, and truncates message text
// the way stored records are kept, so comparisons are apples to apples.
func Normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ToLower(text)
	if len(text) > maxContentLength {
		text = text[:maxContentLength]
	}
	return text
}

// Record appends a message to the user's history, evicting the oldest
// entries beyond the per-user cap.
func (s *Store) Record(userID, channelID, text string, now time.Time) {
	record := Record{
		ChannelID: channelID,
		Content:   Normalize(text),
		Timestamp: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.users[userID], record)
	if len(records) > maxRecordsPerUser {
		records = records[len(records)-maxRecordsPerUser:]
	}
	s.users[userID] = records
}

// RecentFor returns the user's non-expired records, oldest first. Unknown
// users yield an empty slice. Expired entries for this user are purged as
// a side effect. The returned slice is a copy; callers cannot reach the
// store's internal state through it.
func (s *Store) RecentFor(userID string, now time.Time) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pruneLocked(userID, now)
	if len(kept) == 0 {
		return nil
	}
	out := make([]Record, len(kept))
	copy(out, kept)
	return out
}

// Forget drops all history for a user. Called after quarantine so stale
// evidence cannot re-trigger.
func (s *Store) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// PurgeExpired sweeps every user, dropping records older than the
// retention window and removing users whose history emptied out.
func (s *Store) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID := range s.users {
		if len(s.pruneLocked(userID, now)) == 0 {
			removed++
		}
	}
	return removed
}

// Users reports how many users currently have history.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) pruneLocked(userID string, now time.Time) []Record {
	records := s.users[userID]
	if len(records) == 0 {
		return nil
	}
	cutoff := now.Add(-s.retention)
	idx := 0
	for _, record := range records {
		if record.Timestamp.After(cutoff) {
			break
		}
		idx++
	}
	if idx == len(records) {
		delete(s.users, userID)
		return nil
	}
	records = records[idx:]
	s.users[userID] = records
	return records
}
