package database

import (
	"time"

	"github.com/edgard/botwarden/internal/groupme"
	"github.com/edgard/botwarden/internal/migration"
)

// TokenKey is the credential key holding the registry access token.
const TokenKey = "groupme_access_token"

// Credential is one row of the credential key-value table.
type Credential struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BotSnapshot is the last listed state of a bot, in display order.
type BotSnapshot struct {
	BotID          string    `db:"bot_id"`
	Name           string    `db:"name"`
	GroupID        string    `db:"group_id"`
	GroupName      string    `db:"group_name"`
	AvatarURL      string    `db:"avatar_url"`
	CallbackURL    string    `db:"callback_url"`
	DMNotification bool      `db:"dm_notification"`
	Position       int       `db:"position"`
	RefreshedAt    time.Time `db:"refreshed_at"`
}

// Bot converts the snapshot back to a registry bot.
func (s BotSnapshot) Bot() groupme.Bot {
	return groupme.Bot{
		ID:             s.BotID,
		Name:           s.Name,
		GroupID:        s.GroupID,
		GroupName:      s.GroupName,
		AvatarURL:      s.AvatarURL,
		CallbackURL:    s.CallbackURL,
		DMNotification: s.DMNotification,
	}
}

// MigrationEntry is one journaled orchestrator run.
type MigrationEntry struct {
	ID            int64     `db:"id"`
	RunID         string    `db:"run_id"`
	BotID         string    `db:"bot_id"`
	RequestName   string    `db:"request_name"`
	RequestGroup  string    `db:"request_group"`
	Kind          string    `db:"kind"`
	Stage         string    `db:"stage"`
	OldBotID      string    `db:"old_bot_id"`
	NewBotID      string    `db:"new_bot_id"`
	AvatarCarried bool      `db:"avatar_carried"`
	ErrorMessage  string    `db:"error_message"`
	StartedAt     time.Time `db:"started_at"`
	FinishedAt    time.Time `db:"finished_at"`
}

// BotLost reports an entry whose old bot was deleted without a replacement.
func (e MigrationEntry) BotLost() bool {
	return e.Kind == string(migration.KindFailed) && e.Stage == string(migration.StageCreate)
}
