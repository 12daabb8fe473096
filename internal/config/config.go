package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string           `yaml:"discord_token"`
	GuildID       string           `yaml:"guild_id"`
	DatabasePath  string           `yaml:"database_path"`
	LogLevel      string           `yaml:"log_level"`
	RetentionDays int              `yaml:"retention_days"`
	Health        HealthConfig     `yaml:"health"`
	Spam          SpamConfig       `yaml:"spam"`
	LinkWatch     LinkWatchConfig  `yaml:"linkwatch"`
	Greetings     GreetingsConfig  `yaml:"greetings"`
	Responses     ResponsesConfig  `yaml:"responses"`
	Roles         RolesConfig      `yaml:"roles"`
	Starboard     StarboardConfig  `yaml:"starboard"`
	Stats         StatsConfig      `yaml:"stats"`
	Workshop      WorkshopConfig   `yaml:"workshop"`
	InviteHelp    InviteHelpConfig `yaml:"invite_help"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SpamConfig drives the cross-channel spam detector and the quarantine
// state machine.
type SpamConfig struct {
	SimilarityThreshold     float64  `yaml:"similarity_threshold"`
	ChannelThreshold        int      `yaml:"channel_threshold"`
	HistoryRetentionSeconds int      `yaml:"history_retention_seconds"`
	MinMessageLength        int      `yaml:"min_message_length"`
	CleanupIntervalSeconds  int      `yaml:"cleanup_interval_seconds"`
	HoneypotChannelIDs      []string `yaml:"honeypot_channel_ids"`
	QuarantineRoleID        string   `yaml:"quarantine_role_id"`
	StaffChannelID          string   `yaml:"staff_channel_id"`
	StaffRoleID             string   `yaml:"staff_role_id"`
	PurgeOnQuarantine       bool     `yaml:"purge_on_quarantine"`
}

type LinkWatchConfig struct {
	Enabled       bool `yaml:"enabled"`
	Messages      int  `yaml:"messages"`
	WindowSeconds int  `yaml:"window_seconds"`
}

type GreetingsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Template string `yaml:"template"`
}

type ResponsesConfig struct {
	Path string `yaml:"path"`
}

type RolesConfig struct {
	Path                 string `yaml:"path"`
	ResetEnabled         bool   `yaml:"reset_enabled"`
	ResetIntervalMinutes int    `yaml:"reset_interval_minutes"`
}

type StarboardConfig struct {
	ChannelID     string `yaml:"channel_id"`
	ReactionLimit int    `yaml:"reaction_limit"`
	Emoji         string `yaml:"emoji"`
}

type StatsConfig struct {
	MembersChannelID string        `yaml:"members_channel_id"`
	BoostsChannelID  string        `yaml:"boosts_channel_id"`
	RefreshMinutes   int           `yaml:"refresh_minutes"`
	RoleCounters     []RoleCounter `yaml:"role_counters"`
}

type RoleCounter struct {
	RoleID    string `yaml:"role_id"`
	ChannelID string `yaml:"channel_id"`
	Label     string `yaml:"label"`
}

type WorkshopConfig struct {
	VoiceChannelID string `yaml:"voice_channel_id"`
	TextChannelID  string `yaml:"text_channel_id"`
	RoleID         string `yaml:"role_id"`
}

type InviteHelpConfig struct {
	ChannelID string `yaml:"channel_id"`
	Sender    string `yaml:"sender"`
	Region    string `yaml:"region"`
	Subject   string `yaml:"subject"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:  "/data/warden.db",
		LogLevel:      "info",
		RetentionDays: 14,
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Spam: SpamConfig{
			SimilarityThreshold:     0.85,
			ChannelThreshold:        3,
			HistoryRetentionSeconds: 3600,
			MinMessageLength:        20,
			CleanupIntervalSeconds:  300,
			PurgeOnQuarantine:       true,
		},
		LinkWatch: LinkWatchConfig{Enabled: true, Messages: 3, WindowSeconds: 60},
		Greetings: GreetingsConfig{Enabled: true, Template: "Welcome %s!"},
		Responses: ResponsesConfig{Path: "command_responses.json"},
		Roles:     RolesConfig{Path: "assignable_roles.json", ResetEnabled: true, ResetIntervalMinutes: 10},
		Starboard: StarboardConfig{ReactionLimit: 5, Emoji: "⭐"},
		Stats:     StatsConfig{RefreshMinutes: 10},
		InviteHelp: InviteHelpConfig{
			Region:  "us-west-1",
			Subject: "Staff Response",
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on configuration that would make the detector
// misbehave at runtime.
func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.Spam.SimilarityThreshold < 0 || c.Spam.SimilarityThreshold > 1 {
		return fmt.Errorf("spam.similarity_threshold must be in [0,1], got %v", c.Spam.SimilarityThreshold)
	}
	if c.Spam.ChannelThreshold < 1 {
		return fmt.Errorf("spam.channel_threshold must be at least 1, got %d", c.Spam.ChannelThreshold)
	}
	if c.Spam.HistoryRetentionSeconds <= 0 {
		return fmt.Errorf("spam.history_retention_seconds must be positive, got %d", c.Spam.HistoryRetentionSeconds)
	}
	if c.Spam.MinMessageLength < 0 {
		return fmt.Errorf("spam.min_message_length must not be negative, got %d", c.Spam.MinMessageLength)
	}
	if c.Starboard.ReactionLimit < 1 {
		return fmt.Errorf("starboard.reaction_limit must be at least 1, got %d", c.Starboard.ReactionLimit)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Spam.SimilarityThreshold = envFloat("SPAM_SIMILARITY_THRESHOLD", cfg.Spam.SimilarityThreshold)
	cfg.Spam.ChannelThreshold = envInt("SPAM_CHANNEL_THRESHOLD", cfg.Spam.ChannelThreshold)
	cfg.Spam.HistoryRetentionSeconds = envInt("MESSAGE_HISTORY_SECONDS", cfg.Spam.HistoryRetentionSeconds)
	cfg.Spam.MinMessageLength = envInt("SPAM_MIN_MESSAGE_LENGTH", cfg.Spam.MinMessageLength)
	cfg.Spam.QuarantineRoleID = envString("QUARANTINE_ROLE_ID", cfg.Spam.QuarantineRoleID)
	cfg.Spam.StaffChannelID = envString("STAFF_CHANNEL_ID", cfg.Spam.StaffChannelID)
	cfg.Spam.StaffRoleID = envString("STAFF_ROLE_ID", cfg.Spam.StaffRoleID)
	if value := os.Getenv("QUARANTINE_HONEYPOT_CHANNEL_IDS"); value != "" {
		cfg.Spam.HoneypotChannelIDs = splitList(value)
	}
	cfg.Starboard.ChannelID = envString("STARBOARD_CHANNEL_ID", cfg.Starboard.ChannelID)
	cfg.Starboard.ReactionLimit = envInt("STARBOARD_REACTION_LIMIT", cfg.Starboard.ReactionLimit)
	cfg.Workshop.VoiceChannelID = envString("WORKSHOP_VOICE_CHANNEL_ID", cfg.Workshop.VoiceChannelID)
	cfg.Workshop.TextChannelID = envString("WORKSHOP_TEXT_CHANNEL_ID", cfg.Workshop.TextChannelID)
	cfg.Workshop.RoleID = envString("WORKSHOP_ROLE_ID", cfg.Workshop.RoleID)
	cfg.InviteHelp.ChannelID = envString("INVITE_HELP_CHANNEL_ID", cfg.InviteHelp.ChannelID)
	cfg.InviteHelp.Sender = envString("INVITE_HELP_SENDER", cfg.InviteHelp.Sender)
	cfg.InviteHelp.Region = envString("INVITE_HELP_REGION", cfg.InviteHelp.Region)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
