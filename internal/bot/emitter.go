package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warden/internal/quarantine"

	"github.com/bwmarrin/discordgo"
)

// emitter applies quarantine mutations through the discord session. Each
// method is one independent platform call; retry policy, if any, belongs
// here and not in the state machine.
type emitter struct {
	bot *Bot
}

func (e *emitter) RevokeRoles(ctx context.Context, guildID, userID string) error {
	_ = ctx
	none := []string{}
	_, err := e.bot.session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &none})
	return err
}

func (e *emitter) AssignRole(ctx context.Context, guildID, userID, roleID string) error {
	_ = ctx
	return e.bot.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (e *emitter) PostNotice(ctx context.Context, guildID, userID string, evidence quarantine.Evidence) error {
	_ = ctx
	channelID := e.bot.cfg.Spam.StaffChannelID
	if channelID == "" {
		return fmt.Errorf("staff channel not configured")
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: "<@" + userID + ">", Inline: true},
		{Name: "Reason", Value: evidence.Reason, Inline: true},
	}
	if evidence.MatchedChannels > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Matched channels",
			Value:  fmt.Sprintf("%d", evidence.MatchedChannels),
			Inline: true,
		})
	}
	if evidence.ChannelID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Triggered in",
			Value:  "<#" + evidence.ChannelID + ">",
			Inline: true,
		})
	}
	if len(evidence.Samples) > 0 {
		lines := make([]string, 0, len(evidence.Samples))
		for _, sample := range evidence.Samples {
			content := sample.Content
			if len(content) > 80 {
				content = content[:80] + "…"
			}
			lines = append(lines, fmt.Sprintf("<#%s>: %s", sample.ChannelID, content))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Evidence",
			Value:  strings.Join(lines, "\n"),
			Inline: false,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:     "User quarantined",
		Color:     0xEF4444,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields:    fields,
	}
	_, err := e.bot.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
