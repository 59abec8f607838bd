package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/edgard/botwarden/internal/errors"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. BOTWARDEN_TELEGRAM_TOKEN.
const EnvPrefix = "BOTWARDEN"

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional; a missing file is not an error)
// 3. BOTWARDEN_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigError("failed to read config file", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}
	if cfg.Scheduler.Tasks == nil {
		cfg.Scheduler.Tasks = make(map[string]TaskConfig, len(defaultTasks))
	}
	for name, task := range defaultTasks {
		if _, ok := cfg.Scheduler.Tasks[name]; !ok {
			cfg.Scheduler.Tasks[name] = task
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters.
// Every key is registered so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("registry.base_url", DefaultRegistryBaseURL)
	v.SetDefault("registry.image_url", DefaultRegistryImageURL)
	v.SetDefault("registry.timeout", DefaultRegistryTimeout)
	v.SetDefault("registry.requests_per_second", DefaultRequestsPerSecond)
	v.SetDefault("registry.burst", DefaultBurst)

	v.SetDefault("avatar.fetch_strategy", DefaultAvatarFetchStrategy)
	v.SetDefault("avatar.proxy_url", "")
	v.SetDefault("avatar.direct_hosts", DefaultDirectHosts)
	v.SetDefault("avatar.quality", DefaultAvatarQuality)
	v.SetDefault("avatar.max_bytes", DefaultAvatarMaxBytes)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.journal_retention", DefaultJournalRetention)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("ops.addr", "")

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.token_missing", DefaultMessages.TokenMissing)
	v.SetDefault("messages.token_saved", DefaultMessages.TokenSaved)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.no_bots", DefaultMessages.NoBots)
	v.SetDefault("messages.edit_usage", DefaultMessages.EditUsage)
	v.SetDefault("messages.avatar_usage", DefaultMessages.AvatarUsage)
	v.SetDefault("messages.bot_not_found", DefaultMessages.BotNotFoundFmt)
	v.SetDefault("messages.updated", DefaultMessages.UpdatedFmt)
	v.SetDefault("messages.migrated", DefaultMessages.MigratedFmt)
	v.SetDefault("messages.failed", DefaultMessages.FailedFmt)
	v.SetDefault("messages.bot_lost", DefaultMessages.BotLostFmt)
	v.SetDefault("messages.stale_list", DefaultMessages.StaleListFmt)
}

// String renders the non-secret parts of the configuration for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("registry=%s image=%s avatar_strategy=%s db=%s telegram=%t ops=%q",
		c.Registry.BaseURL, c.Registry.ImageURL, c.Avatar.FetchStrategy, c.Database.Path,
		c.Telegram.Token != "", c.Ops.Addr)
}
