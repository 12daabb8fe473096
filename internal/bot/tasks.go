package bot

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startTasks launches the periodic background work: history sweeps, stat
// refreshes, role-picker resets, workshop cleanup, and audit retention.
// Every loop honors the bot's stop channel.
func (b *Bot) startTasks() {
	go b.historySweepLoop()
	go b.statsLoop()
	go b.workshopCleanupLoop()
	go b.auditCleanupLoop()
	if b.cfg.Roles.ResetEnabled {
		go b.reactionResetLoop()
	}
}

func (b *Bot) historySweepLoop() {
	interval := time.Duration(b.cfg.Spam.CleanupIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case now := <-ticker.C:
			removed := b.history.PurgeExpired(now)
			if removed > 0 {
				b.logger.Debug("history sweep", zap.Int("users_cleared", removed))
			}
		}
	}
}

func (b *Bot) statsLoop() {
	interval := time.Duration(b.cfg.Stats.RefreshMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	// Initial refresh once the gateway has had time to populate state.
	select {
	case <-b.stop:
		return
	case <-time.After(time.Minute):
	}
	b.refreshGuildStats()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.refreshGuildStats()
		}
	}
}

func (b *Bot) refreshGuildStats() {
	if b.cfg.GuildID != "" {
		b.stats.RefreshAll(b.session, b.cfg.GuildID)
		return
	}
	if b.session.State == nil {
		return
	}
	for _, guild := range b.session.State.Guilds {
		if guild != nil {
			b.stats.RefreshAll(b.session, guild.ID)
		}
	}
}

func (b *Bot) reactionResetLoop() {
	interval := time.Duration(b.cfg.Roles.ResetIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	select {
	case <-b.stop:
		return
	case <-time.After(10 * time.Second):
	}
	b.roles.ResetReactions(b.session)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.roles.ResetReactions(b.session)
		}
	}
}

func (b *Bot) workshopCleanupLoop() {
	if !b.workshop.Configured() {
		return
	}

	select {
	case <-b.stop:
		return
	case <-time.After(30 * time.Second):
	}
	b.workshop.CleanupText(b.session)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.workshop.CleanupText(b.session)
		}
	}
}

func (b *Bot) auditCleanupLoop() {
	if b.cfg.RetentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			if err := b.store.CleanupAuditLogs(context.Background(), b.cfg.RetentionDays); err != nil {
				b.logger.Warn("audit cleanup failed", zap.Error(err))
			}
		}
	}
}
