package analytics

import (
	"context"
	"time"

	"warden/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Total       int
	ByLevel     map[string]int
	Quarantines int
	Released    int
}

// Report summarizes audit activity and quarantine outcomes since the
// given time, for the /status command.
func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int)}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
	}

	events, err := s.store.ListQuarantineEvents(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}
	for _, event := range events {
		report.Quarantines++
		if event.ReleasedAt != nil {
			report.Released++
		}
	}
	return report, nil
}
