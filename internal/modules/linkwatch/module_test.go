package linkwatch

import (
	"context"
	"testing"

	"warden/internal/audit"
	"warden/internal/config"

	"go.uber.org/zap"
)

func TestLinkBurst(t *testing.T) {
	module := New(config.LinkWatchConfig{Enabled: true, Messages: 3, WindowSeconds: 60}, audit.NewLogger(nil, zap.NewNop()))
	ctx := context.Background()

	if module.HandleMessage(ctx, "g1", "u1", "check https://example.com") {
		t.Fatalf("first link must not flag")
	}
	if module.HandleMessage(ctx, "g1", "u1", "also https://example.org") {
		t.Fatalf("second link must not flag")
	}
	if !module.HandleMessage(ctx, "g1", "u1", "and https://example.net") {
		t.Fatalf("third link inside the window must flag")
	}
	// The signal fires once per burst, not on every message after it.
	if module.HandleMessage(ctx, "g1", "u1", "more https://example.io") {
		t.Fatalf("fourth link must not flag again")
	}
}

func TestPlainMessagesIgnored(t *testing.T) {
	module := New(config.LinkWatchConfig{Enabled: true, Messages: 1, WindowSeconds: 60}, audit.NewLogger(nil, zap.NewNop()))

	if module.HandleMessage(context.Background(), "g1", "u1", "no links here") {
		t.Fatalf("messages without links must not count")
	}
}

func TestDisabled(t *testing.T) {
	module := New(config.LinkWatchConfig{Enabled: false, Messages: 1, WindowSeconds: 60}, audit.NewLogger(nil, zap.NewNop()))

	if module.HandleMessage(context.Background(), "g1", "u1", "https://example.com") {
		t.Fatalf("disabled module must not flag")
	}
}
