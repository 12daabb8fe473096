package greetings

import (
	"fmt"

	"warden/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Module welcomes new members in the guild's system channel.
type Module struct {
	cfg    config.GreetingsConfig
	logger *zap.Logger
}

func New(cfg config.GreetingsConfig, logger *zap.Logger) *Module {
	return &Module{cfg: cfg, logger: logger}
}

func (m *Module) HandleMemberJoin(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if !m.cfg.Enabled || event.User == nil {
		return
	}
	guild, err := session.State.Guild(event.GuildID)
	if err != nil || guild == nil {
		guild, err = session.Guild(event.GuildID)
		if err != nil || guild == nil {
			return
		}
	}
	if guild.SystemChannelID == "" {
		return
	}

	content := fmt.Sprintf(m.cfg.Template, event.User.Mention())
	if _, err := session.ChannelMessageSend(guild.SystemChannelID, content); err != nil {
		m.logger.Warn("welcome message failed",
			zap.String("guild_id", event.GuildID),
			zap.String("user_id", event.User.ID),
			zap.Error(err),
		)
		return
	}
	m.logger.Debug("member welcomed", zap.String("user_id", event.User.ID))
}
