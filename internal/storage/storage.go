package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

type AuditLog struct {
	ID        int64
	GuildID   string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

type QuarantineEvent struct {
	ID              int64
	GuildID         string
	UserID          string
	Reason          string
	MatchedChannels int
	CreatedAt       time.Time
	ReleasedAt      *time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *Store) AddAuditLog(ctx context.Context, log AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (guild_id, user_id, level, event, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.GuildID, log.UserID, log.Level, log.Event, log.Details, log.CreatedAt.Unix())
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, level, event, details, created_at
		FROM audit_logs
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var log AuditLog
		var created int64
		if err := rows.Scan(&log.ID, &log.GuildID, &log.UserID, &log.Level, &log.Event, &log.Details, &created); err != nil {
			return nil, err
		}
		log.CreatedAt = time.Unix(created, 0)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) CleanupAuditLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, cutoff.Unix())
	return err
}

func (s *Store) AddQuarantineEvent(ctx context.Context, event QuarantineEvent) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quarantine_events (guild_id, user_id, reason, matched_channels, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.GuildID, event.UserID, event.Reason, event.MatchedChannels, event.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// MarkReleased stamps every open quarantine event for the user.
func (s *Store) MarkReleased(ctx context.Context, guildID, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE quarantine_events SET released_at = ?
		WHERE guild_id = ? AND user_id = ? AND released_at IS NULL
	`, at.Unix(), guildID, userID)
	return err
}

func (s *Store) ListQuarantineEvents(ctx context.Context, guildID string, since time.Time) ([]QuarantineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, reason, matched_channels, created_at, released_at
		FROM quarantine_events
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []QuarantineEvent
	for rows.Next() {
		var event QuarantineEvent
		var created int64
		var released sql.NullInt64
		if err := rows.Scan(&event.ID, &event.GuildID, &event.UserID, &event.Reason, &event.MatchedChannels, &created, &released); err != nil {
			return nil, err
		}
		event.CreatedAt = time.Unix(created, 0)
		if released.Valid {
			value := time.Unix(released.Int64, 0)
			event.ReleasedAt = &value
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// HasStarboardEntry reports whether a message was already promoted to the
// starboard, surviving restarts.
func (s *Store) HasStarboardEntry(ctx context.Context, messageID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM starboard_entries WHERE message_id = ?`, messageID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) AddStarboardEntry(ctx context.Context, messageID, boardMessageID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO starboard_entries (message_id, board_message_id, created_at)
		VALUES (?, ?, ?)
	`, messageID, boardMessageID, at.Unix())
	return err
}

func (s *Store) LastStarboardEntry(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT board_message_id FROM starboard_entries ORDER BY id DESC LIMIT 1
	`)
	var boardMessageID string
	if err := row.Scan(&boardMessageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return boardMessageID, nil
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
