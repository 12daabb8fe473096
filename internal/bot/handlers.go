package bot

import (
	"context"
	"fmt"
	"time"

	"warden/internal/quarantine"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if interaction.GuildID == "" {
		b.respond(session, interaction, "This command only works in a server.", true)
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "quarantine":
		b.handleQuarantineCommand(ctx, session, interaction, data.Options)
	case "release":
		b.handleReleaseCommand(ctx, session, interaction, data.Options)
	case "status":
		b.handleStatusCommand(ctx, session, interaction)
	}
}

func (b *Bot) handleQuarantineCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.isStaff(interaction.Member) {
		b.respond(session, interaction, "You must be staff to use this command.", true)
		return
	}

	var target *discordgo.User
	reason := "Manual quarantine by staff"
	for _, option := range options {
		switch option.Name {
		case "member":
			target = option.UserValue(session)
		case "reason":
			if option.StringValue() != "" {
				reason = option.StringValue()
			}
		}
	}
	if target == nil {
		b.respond(session, interaction, "Member not found.", true)
		return
	}
	if target.Bot {
		b.respond(session, interaction, "Cannot quarantine bots.", true)
		return
	}
	if interaction.Member != nil && interaction.Member.User != nil && target.ID == interaction.Member.User.ID {
		b.respond(session, interaction, "You cannot quarantine yourself.", true)
		return
	}

	evidence := quarantine.Evidence{Reason: reason}
	if !b.machine.Apply(ctx, interaction.GuildID, target.ID, evidence) {
		b.respond(session, interaction, fmt.Sprintf("%s is already quarantined.", target.Mention()), true)
		return
	}

	deleted := 0
	if b.cfg.Spam.PurgeOnQuarantine {
		deleted = b.purgeRecentMessages(interaction.GuildID, target.ID)
	}
	b.history.Forget(target.ID)

	b.logger.Info("manual quarantine",
		zap.String("user_id", target.ID),
		zap.String("reason", reason),
		zap.Int("deleted", deleted),
	)
	b.respond(session, interaction, fmt.Sprintf("Quarantined %s.\nDeleted %d messages from the last hour.\nReason: %s", target.Mention(), deleted, reason), true)
}

func (b *Bot) handleReleaseCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.isStaff(interaction.Member) {
		b.respond(session, interaction, "You must be staff to use this command.", true)
		return
	}

	var target *discordgo.User
	for _, option := range options {
		if option.Name == "member" {
			target = option.UserValue(session)
		}
	}
	if target == nil {
		b.respond(session, interaction, "Member not found.", true)
		return
	}

	if !b.machine.Release(ctx, interaction.GuildID, target.ID) {
		b.respond(session, interaction, fmt.Sprintf("%s is not quarantined.", target.Mention()), true)
		return
	}

	if b.cfg.Spam.QuarantineRoleID != "" {
		if err := session.GuildMemberRoleRemove(interaction.GuildID, target.ID, b.cfg.Spam.QuarantineRoleID); err != nil {
			b.logger.Warn("quarantine role remove failed", zap.String("user_id", target.ID), zap.Error(err))
		}
	}
	b.respond(session, interaction, fmt.Sprintf("Released %s from quarantine.", target.Mention()), true)
}

func (b *Bot) handleStatusCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	report, err := b.analytics.Report(ctx, interaction.GuildID, time.Now().Add(-24*time.Hour))
	if err != nil {
		b.respond(session, interaction, "Failed to build the report.", true)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Moderation status (24h)",
		Color: 0x3B82F6,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Audit events", Value: fmt.Sprintf("%d", report.Total), Inline: true},
			{Name: "Quarantines", Value: fmt.Sprintf("%d", report.Quarantines), Inline: true},
			{Name: "Released", Value: fmt.Sprintf("%d", report.Released), Inline: true},
			{Name: "Tracked users", Value: fmt.Sprintf("%d", b.history.Users()), Inline: true},
		},
	}
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) isStaff(member *discordgo.Member) bool {
	if member == nil || b.cfg.Spam.StaffRoleID == "" {
		return false
	}
	for _, roleID := range member.Roles {
		if roleID == b.cfg.Spam.StaffRoleID {
			return true
		}
	}
	return false
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
