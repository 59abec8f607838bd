package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultRegistryBaseURL   = "https://api.groupme.com/v3"
	DefaultRegistryImageURL  = "https://image.groupme.com/pictures"
	DefaultRegistryTimeout   = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5

	DefaultAvatarFetchStrategy = "direct"
	DefaultAvatarQuality       = 90
	DefaultAvatarMaxBytes      = 10 << 20

	DefaultDBPath           = "botwarden.db"
	DefaultJournalRetention = 500

	DefaultBotListRefreshSchedule = "0 */10 * * * *"
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
)

// DefaultDirectHosts are fetched without the proxy even when the proxied strategy is active.
var DefaultDirectHosts = []string{"i.groupme.com", "api.telegram.org"}

// DefaultMessages are the stock Telegram replies.
var DefaultMessages = MessagesConfig{
	Welcome:        "botwarden is ready. Send /help to see what I can do.",
	Help:           "/bots - list bots\n/bot <id> - show a bot\n/groups - list groups\n/edit <id> name=...; group=...; callback=... - edit or move a bot\n/avatar <id> - send as a photo caption to replace the avatar\n/token <access token> - save the GroupMe access token\n/me - show the account\n/history - recent migrations",
	NotAuthorized:  "You are not authorized to use this bot.",
	TokenMissing:   "No GroupMe access token saved. Send /token <access token> first.",
	TokenSaved:     "Access token saved.",
	GeneralError:   "An error occurred. Please try again later.",
	NoBots:         "No bots found for this account.",
	EditUsage:      "Usage: /edit <bot_id> name=<name>; group=<group id or name>; callback=<url>",
	AvatarUsage:    "Send a photo with the caption /avatar <bot_id>.",
	BotNotFoundFmt: "Bot %s was not found.",
	UpdatedFmt:     "Bot %s updated.",
	MigratedFmt:    "Bot moved to the new group. Old id %s, new id %s, avatar carried: %t.",
	FailedFmt:      "Operation failed at stage %q: %v",
	BotLostFmt:     "Bot %s was deleted but could not be recreated (%v). Recreate it manually.",
	StaleListFmt:   "GroupMe is unreachable; showing the list stored at %s.",
}

// defaultTasks are scheduled unless the config file overrides them.
var defaultTasks = map[string]TaskConfig{
	"bot_list_refresh": {Enabled: true, Schedule: DefaultBotListRefreshSchedule},
	"sql_maintenance":  {Enabled: true, Schedule: DefaultSQLMaintenanceSchedule},
}
