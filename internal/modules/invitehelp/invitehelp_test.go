package invitehelp

import (
	"context"
	"strings"
	"testing"

	"warden/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeSender struct {
	to      string
	subject string
	body    string
	calls   int
}

func (f *fakeSender) Send(ctx context.Context, to, subject, bodyText, bodyHTML string) error {
	f.calls++
	f.to = to
	f.subject = subject
	f.body = bodyText
	return nil
}

func requestMessage() string {
	return strings.Join([]string{
		"**Invite Help Request**",
		"",
		"Discord: someone#1234",
		"Email: user@example.com",
		"",
		"---",
		"",
		"I never received my invite link.",
		"Can you resend it?",
	}, "\n")
}

func TestHandleMessageForwardsReply(t *testing.T) {
	sender := &fakeSender{}
	module := New(config.InviteHelpConfig{ChannelID: "c1", Sender: "no-reply@example.com", Subject: "Staff Response"}, sender, zap.NewNop())

	msg := &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1",
		Content:   "Resent, check your inbox.",
		Author:    &discordgo.User{Username: "staffer"},
		MessageReference: &discordgo.MessageReference{
			ChannelID: "c1",
			MessageID: "m1",
		},
		ReferencedMessage: &discordgo.Message{
			ID:      "m1",
			Content: requestMessage(),
		},
	}}

	module.HandleMessage(context.Background(), &discordgo.Session{}, msg)

	if sender.calls != 1 {
		t.Fatalf("expected one email, got %d", sender.calls)
	}
	if sender.to != "user@example.com" {
		t.Fatalf("expected recipient parsed from request, got %q", sender.to)
	}
	if sender.subject != "Staff Response" {
		t.Fatalf("unexpected subject %q", sender.subject)
	}
	if !strings.Contains(sender.body, "I never received my invite link.") {
		t.Fatalf("expected request body in email, got %q", sender.body)
	}
	if !strings.Contains(sender.body, "staffer: Resent, check your inbox.") {
		t.Fatalf("expected staff reply in email, got %q", sender.body)
	}
}

func TestHandleMessageIgnoresNonReplies(t *testing.T) {
	sender := &fakeSender{}
	module := New(config.InviteHelpConfig{ChannelID: "c1", Sender: "no-reply@example.com"}, sender, zap.NewNop())

	msg := &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1",
		Content:   "just chatting",
		Author:    &discordgo.User{Username: "staffer"},
	}}
	module.HandleMessage(context.Background(), &discordgo.Session{}, msg)

	if sender.calls != 0 {
		t.Fatalf("expected no email for non-reply, got %d", sender.calls)
	}
}

func TestHandleMessageIgnoresOtherChannels(t *testing.T) {
	sender := &fakeSender{}
	module := New(config.InviteHelpConfig{ChannelID: "c1", Sender: "no-reply@example.com"}, sender, zap.NewNop())

	msg := &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c2",
		Content:   "reply elsewhere",
		Author:    &discordgo.User{Username: "staffer"},
		MessageReference: &discordgo.MessageReference{
			ChannelID: "c2",
			MessageID: "m1",
		},
		ReferencedMessage: &discordgo.Message{ID: "m1", Content: requestMessage()},
	}}
	module.HandleMessage(context.Background(), &discordgo.Session{}, msg)

	if sender.calls != 0 {
		t.Fatalf("expected no email outside the help channel, got %d", sender.calls)
	}
}

func TestRequestBodyFallsBackOnShortMessages(t *testing.T) {
	content := "Email: user@example.com"
	if got := requestBody(content); got != content {
		t.Fatalf("short request should return unchanged, got %q", got)
	}
}
