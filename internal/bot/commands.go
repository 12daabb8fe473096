package bot

import "github.com/bwmarrin/discordgo"

func (b *Bot) registerCommands() error {
	manageRoles := int64(discordgo.PermissionManageRoles)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "quarantine",
			Description:              "Quarantine a user and purge their recent messages",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The member to quarantine",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the quarantine",
					Required:    false,
				},
			},
		},
		{
			Name:                     "release",
			Description:              "Release a quarantined user",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The member to release",
					Required:    true,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show moderation activity for the last 24 hours",
		},
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.GuildID, commands)
	return err
}
