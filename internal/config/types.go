// Package config loads, defaults and validates botwarden configuration
// from config.yaml and BOTWARDEN_* environment variables.
package config

import "time"

// Config is the root configuration for every botwarden surface.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Avatar    AvatarConfig    `mapstructure:"avatar"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig selects the slog level and handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// RegistryConfig describes the bot registry and image hosting endpoints.
type RegistryConfig struct {
	BaseURL           string        `mapstructure:"base_url"            validate:"required,url"`
	ImageURL          string        `mapstructure:"image_url"           validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=5m"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst"               validate:"gte=1"`
}

// AvatarConfig controls how avatars are fetched and normalized.
type AvatarConfig struct {
	// FetchStrategy is "direct" or "proxied".
	FetchStrategy string   `mapstructure:"fetch_strategy" validate:"oneof=direct proxied"`
	ProxyURL      string   `mapstructure:"proxy_url"      validate:"required_if=FetchStrategy proxied"`
	DirectHosts   []string `mapstructure:"direct_hosts"`
	Quality       int      `mapstructure:"quality"        validate:"min=1,max=100"`
	MaxBytes      int64    `mapstructure:"max_bytes"      validate:"min=1024"`
}

// DatabaseConfig points at the sqlite file holding credentials and the journal.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
	// JournalRetention is how many migration journal rows maintenance keeps. Zero keeps all.
	JournalRetention int `mapstructure:"journal_retention" validate:"gte=0"`
}

// TelegramConfig configures the admin chat surface used by `serve`.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required_with=Token"`

	// BotUsername is filled at runtime from getMe.
	BotUsername string `mapstructure:"-"`
}

// SchedulerConfig lists the scheduled tasks by registry name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single cron-scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// OpsConfig configures the metrics and health endpoint. An empty Addr disables it.
type OpsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// MessagesConfig holds user-facing texts for the Telegram surface.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"         validate:"required"`
	Help           string `mapstructure:"help"            validate:"required"`
	NotAuthorized  string `mapstructure:"not_authorized"  validate:"required"`
	TokenMissing   string `mapstructure:"token_missing"   validate:"required"`
	TokenSaved     string `mapstructure:"token_saved"     validate:"required"`
	GeneralError   string `mapstructure:"general_error"   validate:"required"`
	NoBots         string `mapstructure:"no_bots"         validate:"required"`
	EditUsage      string `mapstructure:"edit_usage"      validate:"required"`
	AvatarUsage    string `mapstructure:"avatar_usage"    validate:"required"`
	BotNotFoundFmt string `mapstructure:"bot_not_found"   validate:"required"`
	UpdatedFmt     string `mapstructure:"updated"         validate:"required"`
	MigratedFmt    string `mapstructure:"migrated"        validate:"required"`
	FailedFmt      string `mapstructure:"failed"          validate:"required"`
	BotLostFmt     string `mapstructure:"bot_lost"        validate:"required"`
	StaleListFmt   string `mapstructure:"stale_list"      validate:"required"`
}
