// Package migration drives a bot from its current state to a requested one.
// A group change is emulated by destroying the bot and recreating it in the
// target group, carrying the avatar over when possible.
package migration

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/botwarden/internal/avatar"
	"github.com/edgard/botwarden/internal/groupme"
	"github.com/edgard/botwarden/internal/metrics"
)

// Registry is the subset of the registry client the orchestrator drives.
type Registry interface {
	Create(ctx context.Context, params groupme.CreateParams) (*groupme.Bot, error)
	Update(ctx context.Context, botID string, fields groupme.UpdateFields) error
	Destroy(ctx context.Context, botID string) error
}

// Avatars is the avatar pipeline.
type Avatars interface {
	Fetch(ctx context.Context, source string) (*avatar.Asset, error)
	Normalize(asset *avatar.Asset) (*avatar.Asset, error)
	Upload(ctx context.Context, asset *avatar.Asset) (string, error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordMigration(ctx context.Context, rec Record) error
}

// State is a step of the run state machine.
type State string

const (
	StateStart           State = "start"
	StateDecideStrategy  State = "decide_strategy"
	StateUpdateInPlace   State = "update_in_place"
	StateFetchOldAvatar  State = "fetch_old_avatar"
	StateDeleteOld       State = "delete_old"
	StateCreateNew       State = "create_new"
	StateSkip            State = "skip"
	StateUploadNewAvatar State = "upload_new_avatar"
	StateAttachAvatar    State = "attach_avatar"
	StateDone            State = "done"
)

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	Tracker  *Tracker
	Recorder Recorder
	Metrics  *metrics.Collectors
	// OnTransition is called after every state change.
	OnTransition func(from, to State)
}

// Orchestrator is the only caller of the registry's destructive operations
// and of the avatar pipeline.
type Orchestrator struct {
	registry Registry
	avatars  Avatars
	opts     Options
	log      *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(registry Registry, avatars Avatars, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tracker == nil {
		opts.Tracker = NewTracker()
	}
	return &Orchestrator{
		registry: registry,
		avatars:  avatars,
		opts:     opts,
		log:      logger.With("component", "migration"),
	}
}

// Tracker returns the in-flight tracker shared with list refreshes.
func (o *Orchestrator) Tracker() *Tracker {
	return o.opts.Tracker
}

// run holds the state of one orchestrator run. Steps execute strictly in sequence.
type run struct {
	ctx     context.Context
	bot     groupme.Bot
	req     Request
	log     *slog.Logger
	asset   *avatar.Asset
	newBot  *groupme.Bot
	hosted  string
	outcome Outcome
}

// Run moves bot to req and returns the terminal outcome. The error is non-nil
// exactly when the outcome is KindFailed. Once the old bot's deletion has been
// accepted, cancellation of ctx is no longer honored.
func (o *Orchestrator) Run(ctx context.Context, bot groupme.Bot, req Request) (Outcome, error) {
	runID := uuid.NewString()
	started := time.Now()
	r := &run{
		ctx: ctx,
		bot: bot,
		req: req.normalized(),
		log: o.log.With("run_id", runID, "bot_id", bot.ID),
	}

	release, err := o.opts.Tracker.Begin(bot.ID)
	if err != nil {
		r.outcome = Failed(StageValidate, err)
	} else {
		defer release()
		for state := StateStart; state != StateDone; {
			next := o.step(r, state)
			r.log.DebugContext(ctx, "Migration transition", "from", state, "to", next)
			if o.opts.OnTransition != nil {
				o.opts.OnTransition(state, next)
			}
			state = next
		}
	}

	o.finish(ctx, runID, started, r)
	return r.outcome, r.outcome.AsError()
}

func (o *Orchestrator) step(r *run, state State) State {
	switch state {
	case StateStart:
		if err := r.req.Validate(); err != nil {
			r.outcome = Failed(StageValidate, err)
			return StateDone
		}
		return StateDecideStrategy

	case StateDecideStrategy:
		if r.req.GroupID == r.bot.GroupID {
			return StateUpdateInPlace
		}
		r.log.InfoContext(r.ctx, "Group changed, moving bot", "from_group", r.bot.GroupID, "to_group", r.req.GroupID)
		return StateFetchOldAvatar

	case StateUpdateInPlace:
		fields := groupme.UpdateFields{
			Name:      groupme.String(r.req.Name),
			AvatarURL: groupme.String(r.req.AvatarURL),
		}
		if r.req.CallbackURL != r.bot.CallbackURL {
			fields.CallbackURL = groupme.String(r.req.CallbackURL)
		}
		if err := o.registry.Update(r.ctx, r.bot.ID, fields); err != nil {
			r.log.ErrorContext(r.ctx, "Failed to update bot", "error", err)
			r.outcome = Failed(StageUpdate, err)
			return StateDone
		}
		r.outcome = UpdatedInPlace(r.bot.ID)
		return StateDone

	case StateFetchOldAvatar:
		if r.req.AvatarURL == "" {
			return StateDeleteOld
		}
		asset, err := o.avatars.Fetch(r.ctx, r.req.AvatarURL)
		if err != nil {
			r.log.WarnContext(r.ctx, "Could not fetch avatar, moving bot without it", "error", err)
			return StateDeleteOld
		}
		r.asset = asset
		return StateDeleteOld

	case StateDeleteOld:
		if err := o.registry.Destroy(r.ctx, r.bot.ID); err != nil {
			r.log.ErrorContext(r.ctx, "Failed to delete old bot, not creating a new one", "error", err)
			r.outcome = Failed(StageDelete, err)
			return StateDone
		}
		// The old bot is gone; the run must reach CreateNew or report the loss.
		r.ctx = context.WithoutCancel(r.ctx)
		return StateCreateNew

	case StateCreateNew:
		created, err := o.registry.Create(r.ctx, groupme.CreateParams{
			Name:        r.req.Name,
			GroupID:     r.req.GroupID,
			CallbackURL: r.req.CallbackURL,
		})
		if err != nil {
			r.log.ErrorContext(r.ctx, "Old bot deleted but new bot could not be created", "error", err)
			r.outcome = Failed(StageCreate, err)
			return StateDone
		}
		r.newBot = created
		if r.asset == nil {
			return StateSkip
		}
		return StateUploadNewAvatar

	case StateUploadNewAvatar:
		normalized, err := o.avatars.Normalize(r.asset)
		if err != nil {
			r.log.WarnContext(r.ctx, "Could not normalize avatar", "error", err)
			return StateSkip
		}
		hosted, err := o.avatars.Upload(r.ctx, normalized)
		if err != nil {
			r.log.WarnContext(r.ctx, "Could not upload avatar", "error", err)
			return StateSkip
		}
		r.hosted = hosted
		return StateAttachAvatar

	case StateAttachAvatar:
		if err := o.registry.Update(r.ctx, r.newBot.ID, groupme.UpdateFields{AvatarURL: groupme.String(r.hosted)}); err != nil {
			r.log.WarnContext(r.ctx, "Could not attach avatar to new bot", "new_bot_id", r.newBot.ID, "error", err)
			return StateSkip
		}
		r.newBot.AvatarURL = r.hosted
		r.outcome = Migrated(r.bot.ID, r.newBot.ID, true)
		r.outcome.NewBot = r.newBot
		return StateDone

	case StateSkip:
		r.outcome = Migrated(r.bot.ID, r.newBot.ID, false)
		r.outcome.NewBot = r.newBot
		return StateDone

	default:
		return StateDone
	}
}

func (o *Orchestrator) finish(ctx context.Context, runID string, started time.Time, r *run) {
	out := r.outcome
	o.opts.Metrics.ObserveOutcome(string(out.Kind), string(out.Stage))
	if out.Kind == KindMigrated && r.req.AvatarURL != "" {
		o.opts.Metrics.ObserveAvatarCarry(out.AvatarCarried)
	}

	switch {
	case out.BotLost():
		r.log.ErrorContext(ctx, "Bot lost during move", "outcome", out.String())
	case out.Kind == KindFailed:
		r.log.WarnContext(ctx, "Run failed", "outcome", out.String())
	default:
		r.log.InfoContext(ctx, "Run finished", "outcome", out.String(), "duration", time.Since(started))
	}

	if o.opts.Recorder == nil {
		return
	}
	rec := Record{
		RunID:      runID,
		BotID:      r.bot.ID,
		Request:    r.req,
		Outcome:    out,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := o.opts.Recorder.RecordMigration(context.WithoutCancel(ctx), rec); err != nil {
		r.log.ErrorContext(ctx, "Failed to record run", "error", err)
	}
}
