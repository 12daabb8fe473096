package config

import "testing"

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.DiscordToken = "token"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults with a token should validate: %v", err)
	}
}

func TestValidateMissingToken(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestValidateThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Spam.SimilarityThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for threshold above 1")
	}
	cfg.Spam.SimilarityThreshold = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
}

func TestValidateChannelThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Spam.ChannelThreshold = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for channel threshold below 1")
	}
}

func TestValidateRetention(t *testing.T) {
	cfg := validConfig()
	cfg.Spam.HistoryRetentionSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero retention")
	}
}

func TestValidateStarboardLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Starboard.ReactionLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero reaction limit")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPAM_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("SPAM_CHANNEL_THRESHOLD", "4")
	t.Setenv("QUARANTINE_HONEYPOT_CHANNEL_IDS", "c1, c2 ,c3")

	cfg := DefaultConfig()
	applyEnv(&cfg)

	if cfg.Spam.SimilarityThreshold != 0.9 {
		t.Fatalf("expected threshold 0.9, got %v", cfg.Spam.SimilarityThreshold)
	}
	if cfg.Spam.ChannelThreshold != 4 {
		t.Fatalf("expected channel threshold 4, got %d", cfg.Spam.ChannelThreshold)
	}
	if len(cfg.Spam.HoneypotChannelIDs) != 3 || cfg.Spam.HoneypotChannelIDs[1] != "c2" {
		t.Fatalf("expected honeypot list parsed, got %v", cfg.Spam.HoneypotChannelIDs)
	}
}
