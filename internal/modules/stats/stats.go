package stats

import (
	"fmt"

	"warden/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Module keeps live counters in channel names: total members, boosts, and
// one channel per counted role. Channel renames are rate limited hard by
// the platform, so refreshes are event-driven plus a slow ticker, never
// per message.
type Module struct {
	cfg    config.StatsConfig
	logger *zap.Logger
}

func New(cfg config.StatsConfig, logger *zap.Logger) *Module {
	return &Module{cfg: cfg, logger: logger}
}

func (m *Module) RefreshMembers(session *discordgo.Session, guildID string) {
	if m.cfg.MembersChannelID == "" {
		return
	}
	guild, err := m.guild(session, guildID)
	if err != nil {
		return
	}
	name := fmt.Sprintf("🔹┇%d︲members", guild.MemberCount)
	m.rename(session, m.cfg.MembersChannelID, name)
}

func (m *Module) RefreshBoosts(session *discordgo.Session, guildID string) {
	if m.cfg.BoostsChannelID == "" {
		return
	}
	guild, err := m.guild(session, guildID)
	if err != nil {
		return
	}
	name := fmt.Sprintf("🔸┇%d︲boosts", guild.PremiumSubscriptionCount)
	m.rename(session, m.cfg.BoostsChannelID, name)
}

func (m *Module) RefreshRoleCounts(session *discordgo.Session, guildID string) {
	if len(m.cfg.RoleCounters) == 0 {
		return
	}
	guild, err := m.guild(session, guildID)
	if err != nil {
		return
	}

	counts := make(map[string]int)
	for _, member := range guild.Members {
		for _, roleID := range member.Roles {
			counts[roleID]++
		}
	}
	for _, counter := range m.cfg.RoleCounters {
		name := fmt.Sprintf("🔸┇%d︲%s", counts[counter.RoleID], counter.Label)
		m.rename(session, counter.ChannelID, name)
	}
}

func (m *Module) RefreshAll(session *discordgo.Session, guildID string) {
	m.RefreshMembers(session, guildID)
	m.RefreshBoosts(session, guildID)
	m.RefreshRoleCounts(session, guildID)
}

func (m *Module) guild(session *discordgo.Session, guildID string) (*discordgo.Guild, error) {
	guild, err := session.State.Guild(guildID)
	if err == nil && guild != nil {
		return guild, nil
	}
	guild, err = session.Guild(guildID)
	if err != nil {
		m.logger.Warn("guild fetch failed", zap.String("guild_id", guildID), zap.Error(err))
		return nil, err
	}
	return guild, nil
}

func (m *Module) rename(session *discordgo.Session, channelID, name string) {
	if _, err := session.ChannelEditComplex(channelID, &discordgo.ChannelEdit{Name: name}); err != nil {
		m.logger.Warn("stat channel rename failed",
			zap.String("channel_id", channelID),
			zap.String("name", name),
			zap.Error(err),
		)
		return
	}
	m.logger.Debug("stat channel updated", zap.String("channel_id", channelID), zap.String("name", name))
}
