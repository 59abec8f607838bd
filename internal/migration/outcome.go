package migration

import (
	"fmt"
	"time"

	"github.com/edgard/botwarden/internal/groupme"
)

// Kind is the terminal result type of a run.
type Kind string

const (
	KindUpdatedInPlace Kind = "updated_in_place"
	KindMigrated       Kind = "migrated"
	KindFailed         Kind = "failed"
)

// Stage names the step a failed run stopped at.
type Stage string

const (
	StageValidate Stage = "validate"
	StageUpdate   Stage = "update"
	StageDelete   Stage = "delete"
	StageCreate   Stage = "create"
)

// Outcome is the terminal result of one run.
type Outcome struct {
	Kind Kind

	// BotID is set for KindUpdatedInPlace.
	BotID string

	// OldBotID, NewBotID and AvatarCarried are set for KindMigrated.
	OldBotID      string
	NewBotID      string
	AvatarCarried bool
	NewBot        *groupme.Bot

	// Stage and Err are set for KindFailed.
	Stage Stage
	Err   error
}

// UpdatedInPlace builds an in-place outcome.
func UpdatedInPlace(botID string) Outcome {
	return Outcome{Kind: KindUpdatedInPlace, BotID: botID}
}

// Migrated builds a successful destroy-and-recreate outcome.
func Migrated(oldID, newID string, avatarCarried bool) Outcome {
	return Outcome{Kind: KindMigrated, OldBotID: oldID, NewBotID: newID, AvatarCarried: avatarCarried}
}

// Failed builds a failed outcome.
func Failed(stage Stage, cause error) Outcome {
	return Outcome{Kind: KindFailed, Stage: stage, Err: cause}
}

// BotLost reports a run that deleted the old bot but could not create the new one.
func (o Outcome) BotLost() bool {
	return o.Kind == KindFailed && o.Stage == StageCreate
}

// AsError returns a *StageError for failed outcomes and nil otherwise.
func (o Outcome) AsError() error {
	if o.Kind != KindFailed {
		return nil
	}
	return &StageError{Stage: o.Stage, Err: o.Err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindUpdatedInPlace:
		return fmt.Sprintf("UpdatedInPlace(%s)", o.BotID)
	case KindMigrated:
		return fmt.Sprintf("Migrated(%s, %s, %t)", o.OldBotID, o.NewBotID, o.AvatarCarried)
	case KindFailed:
		return fmt.Sprintf("Failed(%s, %v)", o.Stage, o.Err)
	default:
		return "Unknown"
	}
}

// StageError wraps the cause of a failed run with the stage it failed at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Record is what the journal stores about a finished run.
type Record struct {
	RunID      string
	BotID      string
	Request    Request
	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}
