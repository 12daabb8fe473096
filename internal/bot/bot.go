package bot

import (
	"context"
	"time"

	"warden/internal/analytics"
	"warden/internal/audit"
	"warden/internal/config"
	"warden/internal/history"
	"warden/internal/modules/greetings"
	"warden/internal/modules/invitehelp"
	"warden/internal/modules/linkwatch"
	"warden/internal/modules/responses"
	"warden/internal/modules/roles"
	"warden/internal/modules/starboard"
	"warden/internal/modules/stats"
	"warden/internal/modules/workshop"
	"warden/internal/quarantine"
	"warden/internal/similarity"
	"warden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot wires the platform session to the detection core and the feature
// modules. All platform mutations happen here or in the modules; the
// core packages stay free of discordgo.
type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service

	session   *discordgo.Session
	history   *history.Store
	detector  *similarity.Detector
	honeypots quarantine.Honeypots
	machine   *quarantine.Machine

	greetings  *greetings.Module
	responses  *responses.Module
	roles      *roles.Module
	starboard  *starboard.Module
	stats      *stats.Module
	workshop   *workshop.Module
	linkwatch  *linkwatch.Module
	invitehelp *invitehelp.Module

	stop chan struct{}
}

type Deps struct {
	Store      *storage.Store
	Audit      *audit.Logger
	Analytics  *analytics.Service
	Responses  responses.Table
	Roles      roles.Bindings
	InviteHelp *invitehelp.Module
}

func New(cfg config.Config, logger *zap.Logger, deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		store:      deps.Store,
		audit:      deps.Audit,
		analytics:  deps.Analytics,
		session:    session,
		history:    history.NewStore(time.Duration(cfg.Spam.HistoryRetentionSeconds) * time.Second),
		honeypots:  quarantine.NewHoneypots(cfg.Spam.HoneypotChannelIDs),
		invitehelp: deps.InviteHelp,
		stop:       make(chan struct{}),
	}

	b.detector = similarity.NewDetector(similarity.Config{
		Threshold:        cfg.Spam.SimilarityThreshold,
		ChannelThreshold: cfg.Spam.ChannelThreshold,
		MinLength:        cfg.Spam.MinMessageLength,
	})
	b.machine = quarantine.NewMachine(cfg.Spam.QuarantineRoleID, &emitter{bot: b}, deps.Audit, deps.Store)

	b.greetings = greetings.New(cfg.Greetings, logger)
	b.responses = responses.New(deps.Responses, logger)
	b.roles = roles.New(deps.Roles, logger)
	b.starboard = starboard.New(cfg.Starboard, deps.Store, logger)
	b.stats = stats.New(cfg.Stats, logger)
	b.workshop = workshop.New(cfg.Workshop, logger)
	b.linkwatch = linkwatch.New(cfg.LinkWatch, deps.Audit)

	if b.audit != nil {
		b.audit.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
			b.notifyAudit(ctx, entry)
		})
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onMessageReactionAdd)
	b.session.AddHandler(b.onMessageReactionRemove)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.startTasks()
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	close(b.stop)
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	ctx := context.Background()

	if b.responses.HandleMessage(session, msg) {
		return
	}
	if b.invitehelp != nil {
		b.invitehelp.HandleMessage(ctx, session, msg)
	}
	b.linkwatch.HandleMessage(ctx, msg.GuildID, msg.Author.ID, msg.Content)

	b.handleSpamChecks(ctx, msg)
}

// handleSpamChecks runs the quarantine pipeline: honeypot first, then the
// cross-channel detector. Only messages that pass both get recorded, so
// flagged content never seeds future comparisons.
func (b *Bot) handleSpamChecks(ctx context.Context, msg *discordgo.MessageCreate) {
	now := time.Now()

	if b.honeypots.Contains(msg.ChannelID) {
		evidence := quarantine.Evidence{
			Reason:    "honeypot channel post",
			ChannelID: msg.ChannelID,
			MessageID: msg.ID,
		}
		if b.machine.Apply(ctx, msg.GuildID, msg.Author.ID, evidence) {
			b.containUser(ctx, msg)
		}
		return
	}

	records := b.history.RecentFor(msg.Author.ID, now)
	verdict := b.detector.Evaluate(msg.Content, msg.ChannelID, records)
	if verdict.IsSpam {
		evidence := quarantine.Evidence{
			Reason:          "cross-channel spam",
			MatchedChannels: verdict.MatchedChannelCount,
			Samples:         verdict.MatchedRecords,
			ChannelID:       msg.ChannelID,
			MessageID:       msg.ID,
		}
		if b.machine.Apply(ctx, msg.GuildID, msg.Author.ID, evidence) {
			b.containUser(ctx, msg)
		}
		return
	}

	b.history.Record(msg.Author.ID, msg.ChannelID, msg.Content, now)
}

// containUser performs the cleanup around a fresh quarantine: delete the
// trigger message, purge the user's recent messages, drop their history.
func (b *Bot) containUser(ctx context.Context, msg *discordgo.MessageCreate) {
	_ = b.session.ChannelMessageDelete(msg.ChannelID, msg.ID)
	if b.cfg.Spam.PurgeOnQuarantine {
		deleted := b.purgeRecentMessages(msg.GuildID, msg.Author.ID)
		b.logger.Info("quarantine purge",
			zap.String("user_id", msg.Author.ID),
			zap.Int("deleted", deleted),
		)
	}
	b.history.Forget(msg.Author.ID)
	_ = ctx
}

// purgeRecentMessages deletes the user's messages from the last hour
// across the guild's text channels. Best effort, one page per channel.
func (b *Bot) purgeRecentMessages(guildID, userID string) int {
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		return 0
	}
	cutoff := time.Now().Add(-time.Hour)

	deleted := 0
	for _, channel := range guild.Channels {
		if channel == nil {
			continue
		}
		if channel.Type != discordgo.ChannelTypeGuildText && channel.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		messages, err := b.session.ChannelMessages(channel.ID, 100, "", "", "")
		if err != nil {
			continue
		}
		var ids []string
		for _, message := range messages {
			if message.Author == nil || message.Author.ID != userID {
				continue
			}
			if message.Timestamp.Before(cutoff) {
				continue
			}
			ids = append(ids, message.ID)
		}
		if len(ids) == 0 {
			continue
		}
		if len(ids) == 1 {
			if err := b.session.ChannelMessageDelete(channel.ID, ids[0]); err == nil {
				deleted++
			}
			continue
		}
		if err := b.session.ChannelMessagesBulkDelete(channel.ID, ids); err == nil {
			deleted += len(ids)
		}
	}
	return deleted
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.GuildID == "" {
		return
	}
	b.greetings.HandleMemberJoin(session, event)
	b.stats.RefreshMembers(session, event.GuildID)
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.GuildID == "" {
		return
	}
	b.stats.RefreshMembers(session, event.GuildID)
}

func (b *Bot) onMessageReactionAdd(session *discordgo.Session, event *discordgo.MessageReactionAdd) {
	if event.GuildID == "" || event.UserID == session.State.User.ID {
		return
	}
	ctx := context.Background()
	if b.roles.HandleReactionAdd(session, event) {
		b.stats.RefreshRoleCounts(session, event.GuildID)
	}
	b.starboard.HandleReactionAdd(ctx, session, event)
}

func (b *Bot) onMessageReactionRemove(session *discordgo.Session, event *discordgo.MessageReactionRemove) {
	if event.GuildID == "" || event.UserID == session.State.User.ID {
		return
	}
	if b.roles.HandleReactionRemove(session, event) {
		b.stats.RefreshRoleCounts(session, event.GuildID)
	}
}

func (b *Bot) onVoiceStateUpdate(session *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	b.workshop.HandleVoiceStateUpdate(session, event)
}

// notifyAudit mirrors WARN and CRIT audit entries to the staff channel.
func (b *Bot) notifyAudit(ctx context.Context, entry storage.AuditLog) {
	_ = ctx
	if b.cfg.Spam.StaffChannelID == "" {
		return
	}
	if entry.Level == audit.LevelInfo {
		return
	}

	userValue := "system"
	if entry.UserID != "" {
		userValue = "<@" + entry.UserID + ">"
	}
	embed := &discordgo.MessageEmbed{
		Title:     "Audit: " + entry.Event,
		Color:     embedColorFor(entry.Level),
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userValue, Inline: true},
			{Name: "Level", Value: entry.Level, Inline: true},
		},
	}
	if entry.Details != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Details", Value: entry.Details, Inline: false})
	}
	_, _ = b.session.ChannelMessageSendEmbed(b.cfg.Spam.StaffChannelID, embed)
}

func embedColorFor(level audit.Level) int {
	switch level {
	case audit.LevelCrit:
		return 0xEF4444
	case audit.LevelWarn:
		return 0xF59E0B
	default:
		return 0x3B82F6
	}
}
