package responses

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Response is one canned reply. Duplicate points at another entry under
// the same prefix and means "answer with that one's content".
type Response struct {
	Duplicate string                  `json:"duplicate,omitempty"`
	Content   string                  `json:"content,omitempty"`
	Embed     *discordgo.MessageEmbed `json:"embed,omitempty"`
}

// Table maps trigger prefix -> command name -> response. Loaded once at
// startup and never mutated afterwards.
type Table map[string]map[string]Response

func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read response table: %w", err)
	}
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse response table: %w", err)
	}
	return table, nil
}

// Lookup resolves a message like "!faq" into its response. The first rune
// is the prefix, the rest the command name. Aliases resolve one level.
func (t Table) Lookup(content string) (Response, bool) {
	if content == "" {
		return Response{}, false
	}
	prefix, size := utf8.DecodeRuneInString(content)
	commands, ok := t[string(prefix)]
	if !ok {
		return Response{}, false
	}
	response, ok := commands[content[size:]]
	if !ok {
		return Response{}, false
	}
	if response.Duplicate != "" {
		response, ok = commands[response.Duplicate]
		if !ok {
			return Response{}, false
		}
	}
	return response, true
}

// Module answers messages that match the response table.
type Module struct {
	table  Table
	logger *zap.Logger
}

func New(table Table, logger *zap.Logger) *Module {
	return &Module{table: table, logger: logger}
}

// HandleMessage replies when the message is a known trigger. Returns true
// when a response was sent.
func (m *Module) HandleMessage(session *discordgo.Session, msg *discordgo.MessageCreate) bool {
	response, ok := m.table.Lookup(msg.Content)
	if !ok {
		return false
	}

	m.logger.Info("response command", zap.String("trigger", msg.Content), zap.String("channel_id", msg.ChannelID))

	var err error
	switch {
	case response.Embed != nil:
		_, err = session.ChannelMessageSendEmbed(msg.ChannelID, response.Embed)
	case response.Content != "":
		_, err = session.ChannelMessageSend(msg.ChannelID, response.Content)
	default:
		return false
	}
	if err != nil {
		m.logger.Warn("response send failed", zap.String("trigger", msg.Content), zap.Error(err))
	}
	return true
}
