package invitehelp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"warden/internal/config"
	"warden/internal/mailer"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`Email: (.*)`)

// Request messages carry a fixed header; the free-form help text starts
// at this line.
const requestBodyLine = 7

// Module forwards staff replies in the invite-help channel by email to
// the member who filed the request. A reply is a message that references
// a request message in the same channel.
type Module struct {
	cfg    config.InviteHelpConfig
	sender mailer.Sender
	logger *zap.Logger
}

func New(cfg config.InviteHelpConfig, sender mailer.Sender, logger *zap.Logger) *Module {
	return &Module{cfg: cfg, sender: sender, logger: logger}
}

func (m *Module) Configured() bool {
	return m.cfg.ChannelID != "" && m.sender != nil
}

func (m *Module) HandleMessage(ctx context.Context, session *discordgo.Session, msg *discordgo.MessageCreate) {
	if !m.Configured() || msg.ChannelID != m.cfg.ChannelID || msg.Content == "" {
		return
	}
	if msg.MessageReference == nil || msg.MessageReference.ChannelID != m.cfg.ChannelID {
		return
	}

	referenced := msg.ReferencedMessage
	if referenced == nil {
		var err error
		referenced, err = session.ChannelMessage(m.cfg.ChannelID, msg.MessageReference.MessageID)
		if err != nil || referenced == nil {
			m.logger.Warn("referenced message fetch failed", zap.Error(err))
			return
		}
	}

	match := emailPattern.FindStringSubmatch(referenced.Content)
	if match == nil {
		m.logger.Debug("no email in referenced message", zap.String("message_id", referenced.ID))
		return
	}
	to := strings.TrimSpace(match[1])

	request := requestBody(referenced.Content)
	staffName := msg.Author.Username
	if msg.Member != nil && msg.Member.Nick != "" {
		staffName = msg.Member.Nick
	}

	bodyText := fmt.Sprintf("Your Message: %s\n\nStaff Response:\n\n%s: %s", request, staffName, msg.Content)
	bodyHTML := fmt.Sprintf(
		`<html><body><h1>Staff Response</h1><pre>%s</pre><h4>Response</h4><p><b>%s</b>: %s</p></body></html>`,
		request, staffName, msg.Content,
	)

	if err := m.sender.Send(ctx, to, m.cfg.Subject, bodyText, bodyHTML); err != nil {
		m.logger.Warn("invite help email failed", zap.String("to", to), zap.Error(err))
		return
	}
	m.logger.Info("invite help reply forwarded", zap.String("staff", staffName))
}

func requestBody(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= requestBodyLine {
		return content
	}
	return strings.Join(lines[requestBodyLine:], "\n")
}
