package workshop

import (
	"time"

	"warden/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Module links the workshop voice channel to its text channel: joining
// the voice channel grants the workshop role and view access to the text
// channel, leaving revokes the view access. The text channel is wiped of
// messages older than a day so each session starts clean.
type Module struct {
	cfg    config.WorkshopConfig
	logger *zap.Logger
}

func New(cfg config.WorkshopConfig, logger *zap.Logger) *Module {
	return &Module{cfg: cfg, logger: logger}
}

func (m *Module) Configured() bool {
	return m.cfg.VoiceChannelID != "" && m.cfg.TextChannelID != ""
}

func (m *Module) HandleVoiceStateUpdate(session *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if !m.Configured() || event.VoiceState == nil {
		return
	}

	wasInside := event.BeforeUpdate != nil && event.BeforeUpdate.ChannelID == m.cfg.VoiceChannelID
	isInside := event.ChannelID == m.cfg.VoiceChannelID

	switch {
	case isInside && !wasInside:
		m.onJoin(session, event.GuildID, event.UserID)
	case wasInside && !isInside:
		m.onLeave(session, event.UserID)
	}
}

func (m *Module) onJoin(session *discordgo.Session, guildID, userID string) {
	m.logger.Info("workshop join", zap.String("user_id", userID))
	if m.cfg.RoleID != "" {
		if err := session.GuildMemberRoleAdd(guildID, userID, m.cfg.RoleID); err != nil {
			m.logger.Warn("workshop role add failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	err := session.ChannelPermissionSet(
		m.cfg.TextChannelID,
		userID,
		discordgo.PermissionOverwriteTypeMember,
		discordgo.PermissionViewChannel,
		0,
	)
	if err != nil {
		m.logger.Warn("workshop permission grant failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (m *Module) onLeave(session *discordgo.Session, userID string) {
	m.logger.Info("workshop leave", zap.String("user_id", userID))
	if err := session.ChannelPermissionDelete(m.cfg.TextChannelID, userID); err != nil {
		m.logger.Warn("workshop permission revoke failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// CleanupText deletes messages older than 24h from the workshop text
// channel. Best effort; failures only log.
func (m *Module) CleanupText(session *discordgo.Session) {
	if !m.Configured() {
		return
	}
	cutoff := time.Now().Add(-24 * time.Hour)

	beforeID := ""
	for {
		messages, err := session.ChannelMessages(m.cfg.TextChannelID, 100, beforeID, "", "")
		if err != nil {
			m.logger.Warn("workshop cleanup fetch failed", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		deleted := 0
		for _, message := range messages {
			beforeID = message.ID
			if message.Timestamp.After(cutoff) {
				continue
			}
			if err := session.ChannelMessageDelete(m.cfg.TextChannelID, message.ID); err != nil {
				m.logger.Warn("workshop cleanup delete failed", zap.String("message_id", message.ID), zap.Error(err))
				continue
			}
			deleted++
		}
		if deleted > 0 {
			m.logger.Debug("workshop cleanup", zap.Int("deleted", deleted))
		}
		if len(messages) < 100 {
			return
		}
	}
}
