package roles

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Binding ties a reaction emoji to a self-assignable role. When MessageID
// is set the binding only fires on that message. Counted bindings feed the
// live role counters.
type Binding struct {
	Name      string `json:"name"`
	RoleID    string `json:"role_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id,omitempty"`
	EmojiID   string `json:"emoji_id,omitempty"`
	Counted   bool   `json:"counted,omitempty"`
}

// Bindings maps emoji name -> binding. Loaded once at startup.
type Bindings map[string]Binding

func LoadBindings(path string) (Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role bindings: %w", err)
	}
	var bindings Bindings
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, fmt.Errorf("parse role bindings: %w", err)
	}
	return bindings, nil
}

// Module toggles roles from reactions on the configured messages.
type Module struct {
	bindings Bindings
	logger   *zap.Logger
}

func New(bindings Bindings, logger *zap.Logger) *Module {
	return &Module{bindings: bindings, logger: logger}
}

// HandleReactionAdd grants the bound role. Returns true when a counted
// role changed, so the caller can refresh the stats channels.
func (m *Module) HandleReactionAdd(session *discordgo.Session, event *discordgo.MessageReactionAdd) bool {
	binding, ok := m.match(event.Emoji.Name, event.MessageID)
	if !ok {
		return false
	}

	if err := session.GuildMemberRoleAdd(event.GuildID, event.UserID, binding.RoleID); err != nil {
		m.logger.Warn("role add failed",
			zap.String("role", binding.Name),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
		return false
	}
	m.logger.Info("role assigned", zap.String("role", binding.Name), zap.String("user_id", event.UserID))
	return binding.Counted
}

// HandleReactionRemove revokes the bound role.
func (m *Module) HandleReactionRemove(session *discordgo.Session, event *discordgo.MessageReactionRemove) bool {
	binding, ok := m.match(event.Emoji.Name, event.MessageID)
	if !ok {
		return false
	}

	if err := session.GuildMemberRoleRemove(event.GuildID, event.UserID, binding.RoleID); err != nil {
		m.logger.Warn("role remove failed",
			zap.String("role", binding.Name),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
		return false
	}
	m.logger.Info("role revoked", zap.String("role", binding.Name), zap.String("user_id", event.UserID))
	return binding.Counted
}

// ResetReactions clears the role-picker messages and re-seeds one
// reaction per emoji, keeping the pickers tidy after restarts.
func (m *Module) ResetReactions(session *discordgo.Session) {
	cleared := make(map[string]bool)
	for emoji, binding := range m.bindings {
		if binding.ChannelID == "" || binding.MessageID == "" {
			continue
		}
		if !cleared[binding.MessageID] {
			if err := session.MessageReactionsRemoveAll(binding.ChannelID, binding.MessageID); err != nil {
				m.logger.Warn("reaction clear failed", zap.String("message_id", binding.MessageID), zap.Error(err))
				continue
			}
			cleared[binding.MessageID] = true
		}

		seed := emoji
		if binding.EmojiID != "" {
			// Custom emoji react via name:id.
			seed = emoji + ":" + binding.EmojiID
		}
		if err := session.MessageReactionAdd(binding.ChannelID, binding.MessageID, seed); err != nil {
			m.logger.Warn("seed reaction failed", zap.String("message_id", binding.MessageID), zap.Error(err))
		}
	}
}

func (m *Module) match(emojiName, messageID string) (Binding, bool) {
	binding, ok := m.bindings[emojiName]
	if !ok {
		return Binding{}, false
	}
	if binding.MessageID != "" && binding.MessageID != messageID {
		return Binding{}, false
	}
	return binding, true
}
