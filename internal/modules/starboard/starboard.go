package starboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warden/internal/config"
	"warden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Accent colors alternate between entries so adjacent board posts are
// visually distinct.
const (
	colorGold = 16769024
	colorTeal = 3375061
)

// Module promotes popular messages to the starboard channel. Promotion is
// once per message; the sqlite entry table makes the dedupe survive
// restarts.
type Module struct {
	mu        sync.Mutex
	lastGold  bool
	cfg       config.StarboardConfig
	store     *storage.Store
	logger    *zap.Logger
}

func New(cfg config.StarboardConfig, store *storage.Store, logger *zap.Logger) *Module {
	return &Module{cfg: cfg, store: store, logger: logger}
}

// HandleReactionAdd checks the star count on the reacted message and
// promotes it once the threshold is reached.
func (m *Module) HandleReactionAdd(ctx context.Context, session *discordgo.Session, event *discordgo.MessageReactionAdd) {
	if m.cfg.ChannelID == "" || event.ChannelID == m.cfg.ChannelID {
		return
	}
	if event.Emoji.Name != m.cfg.Emoji {
		return
	}

	starred, err := m.store.HasStarboardEntry(ctx, event.MessageID)
	if err != nil {
		m.logger.Warn("starboard lookup failed", zap.String("message_id", event.MessageID), zap.Error(err))
		return
	}
	if starred {
		return
	}

	message, err := session.ChannelMessage(event.ChannelID, event.MessageID)
	if err != nil || message == nil {
		m.logger.Warn("starboard fetch failed", zap.String("message_id", event.MessageID), zap.Error(err))
		return
	}
	if countStars(message, m.cfg.Emoji) < m.cfg.ReactionLimit {
		return
	}

	embed := m.buildEmbed(event.GuildID, message)
	posted, err := session.ChannelMessageSendEmbed(m.cfg.ChannelID, embed)
	if err != nil || posted == nil {
		m.logger.Warn("starboard post failed", zap.String("message_id", event.MessageID), zap.Error(err))
		return
	}
	if err := m.store.AddStarboardEntry(ctx, message.ID, posted.ID, time.Now()); err != nil {
		m.logger.Warn("starboard persist failed", zap.String("message_id", message.ID), zap.Error(err))
	}
	_ = session.MessageReactionAdd(m.cfg.ChannelID, posted.ID, m.cfg.Emoji)

	m.logger.Info("starboard entry created",
		zap.String("message_id", message.ID),
		zap.String("author_id", message.Author.ID),
	)
}

func countStars(message *discordgo.Message, emoji string) int {
	for _, reaction := range message.Reactions {
		if reaction.Emoji != nil && reaction.Emoji.Name == emoji {
			return reaction.Count
		}
	}
	return 0
}

func (m *Module) buildEmbed(guildID string, message *discordgo.Message) *discordgo.MessageEmbed {
	m.mu.Lock()
	m.lastGold = !m.lastGold
	color := colorTeal
	if m.lastGold {
		color = colorGold
	}
	m.mu.Unlock()

	jumpURL := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, message.ChannelID, message.ID)
	embed := &discordgo.MessageEmbed{
		Description: message.Content,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "​",
				Value:  fmt.Sprintf("**[Click to jump to message!](%s)**", jumpURL),
				Inline: false,
			},
		},
	}
	if message.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    message.Author.Username,
			IconURL: message.Author.AvatarURL("128"),
		}
	}
	return embed
}
