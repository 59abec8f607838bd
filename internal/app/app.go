// Package app wires the registry client, avatar pipeline, orchestrator and store
// into the operations shared by the CLI and the Telegram surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/botwarden/internal/avatar"
	"github.com/edgard/botwarden/internal/config"
	"github.com/edgard/botwarden/internal/database"
	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/groupme"
	"github.com/edgard/botwarden/internal/metrics"
	"github.com/edgard/botwarden/internal/migration"
)

// ErrBotNotFound is returned when a bot ID is not among the account's bots.
var ErrBotNotFound = errors.New("bot not found")

// BotNotFoundError names the missing bot. It matches ErrBotNotFound with errors.Is.
type BotNotFoundError struct {
	BotID string
}

func (e *BotNotFoundError) Error() string {
	return "bot not found: " + e.BotID
}

func (e *BotNotFoundError) Is(target error) bool {
	return target == ErrBotNotFound
}

// ErrRefreshDeferred is returned by Refresh while an orchestrator run is active.
var ErrRefreshDeferred = errors.New("list refresh deferred: a bot operation is in progress")

// App holds every long-lived component.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	DB           *sqlx.DB
	Store        database.Store
	Metrics      *metrics.Collectors
	Registry     *groupme.Client
	Avatars      *avatar.Pipeline
	Orchestrator *migration.Orchestrator
}

// New opens the database and builds all components from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := database.NewStore(db, logger)

	a, err := NewWithStore(cfg, store, logger)
	if err != nil {
		database.CloseDB(db, logger)
		return nil, err
	}
	a.DB = db
	return a, nil
}

// NewWithStore builds the components around an existing store.
func NewWithStore(cfg *config.Config, store database.Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	collectors := metrics.New()

	registry := groupme.NewClient(groupme.Options{
		BaseURL:           cfg.Registry.BaseURL,
		Timeout:           cfg.Registry.Timeout,
		RequestsPerSecond: cfg.Registry.RequestsPerSecond,
		Burst:             cfg.Registry.Burst,
		Metrics:           collectors,
	}, store, logger)

	strategy, err := avatar.NewStrategy(cfg.Avatar.FetchStrategy, cfg.Avatar.ProxyURL, cfg.Avatar.DirectHosts)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid avatar fetch strategy", err)
	}
	httpClient := &http.Client{Timeout: cfg.Registry.Timeout}
	pipeline := &avatar.Pipeline{
		Fetcher:    avatar.NewFetcher(httpClient, strategy, cfg.Avatar.MaxBytes, logger),
		Normalizer: avatar.Normalizer{Quality: cfg.Avatar.Quality},
		Uploader:   avatar.NewUploader(httpClient, cfg.Registry.ImageURL, store, logger),
	}

	orchestrator := migration.NewOrchestrator(registry, pipeline, migration.Options{
		Tracker:  migration.NewTracker(),
		Recorder: store,
		Metrics:  collectors,
	}, logger)

	return &App{
		Config:       cfg,
		Logger:       logger.With("component", "app"),
		Store:        store,
		Metrics:      collectors,
		Registry:     registry,
		Avatars:      pipeline,
		Orchestrator: orchestrator,
	}, nil
}

// Close releases the database.
func (a *App) Close() {
	database.CloseDB(a.DB, a.Logger)
}

// ListBots returns the account's bots sorted by name and stores them as the snapshot.
func (a *App) ListBots(ctx context.Context) ([]groupme.Bot, error) {
	bots, err := a.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	groupme.SortBots(bots)
	if err := a.Store.SaveBotSnapshot(ctx, bots); err != nil {
		a.Logger.WarnContext(ctx, "Failed to store bot snapshot", "error", err)
	}
	return bots, nil
}

// BotList is the list view. Stale is set when the registry could not be reached
// and Bots come from the stored snapshot taken at AsOf.
type BotList struct {
	Bots  []groupme.Bot
	Stale bool
	AsOf  time.Time
	// Cause is the registry error that forced the snapshot.
	Cause error
}

// Bots lists the account's bots for display. When the registry is unreachable or
// failing server-side, the last stored snapshot is returned instead.
func (a *App) Bots(ctx context.Context) (BotList, error) {
	bots, err := a.ListBots(ctx)
	if err == nil {
		return BotList{Bots: bots}, nil
	}
	if !registryUnavailable(err) || ctx.Err() != nil {
		return BotList{}, err
	}

	snap, snapErr := a.Store.ListBotSnapshot(ctx)
	if snapErr != nil {
		a.Logger.WarnContext(ctx, "Failed to read bot snapshot", "error", snapErr)
		return BotList{}, err
	}
	if len(snap) == 0 {
		return BotList{}, err
	}

	list := BotList{Bots: make([]groupme.Bot, 0, len(snap)), Stale: true, Cause: err}
	for _, s := range snap {
		list.Bots = append(list.Bots, s.Bot())
		if s.RefreshedAt.After(list.AsOf) {
			list.AsOf = s.RefreshedAt
		}
	}
	a.Logger.WarnContext(ctx, "Registry unavailable, serving stored bot list",
		"error", err, "count", len(list.Bots), "as_of", list.AsOf)
	return list, nil
}

// registryUnavailable reports whether err says nothing about the request itself:
// a transport failure, rate limiting or a server-side error.
func registryUnavailable(err error) bool {
	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusTooManyRequests || httpErr.Status >= http.StatusInternalServerError
	}
	return false
}

// Refresh reloads the bot list unless an orchestrator run is in flight. No run
// can start until the reload finishes.
func (a *App) Refresh(ctx context.Context) ([]groupme.Bot, error) {
	var (
		bots []groupme.Bot
		err  error
	)
	if !a.Orchestrator.Tracker().WhenIdle(func() { bots, err = a.ListBots(ctx) }) {
		a.Logger.DebugContext(ctx, "Skipping list refresh", "active_runs", a.Orchestrator.Tracker().Active())
		return nil, ErrRefreshDeferred
	}
	return bots, err
}

// Groups returns the account's groups sorted by name.
func (a *App) Groups(ctx context.Context) ([]groupme.Group, error) {
	groups, err := a.Registry.Groups(ctx)
	if err != nil {
		return nil, err
	}
	groupme.SortGroups(groups)
	return groups, nil
}

// Me returns the account owner.
func (a *App) Me(ctx context.Context) (*groupme.User, error) {
	return a.Registry.Me(ctx)
}

// Bot looks up one bot by ID from a fresh list.
func (a *App) Bot(ctx context.Context, botID string) (groupme.Bot, error) {
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return groupme.Bot{}, apperrors.NewValidationError("bot_id", "bot id must not be empty")
	}
	bots, err := a.ListBots(ctx)
	if err != nil {
		return groupme.Bot{}, err
	}
	bot, ok := groupme.FindBot(bots, botID)
	if !ok {
		return groupme.Bot{}, &BotNotFoundError{BotID: botID}
	}
	return bot, nil
}

// EditInput is a user edit. Group may be a group ID or a group name.
type EditInput struct {
	Name     *string
	Group    *string
	Callback *string
}

// Empty reports whether no field is set.
func (in EditInput) Empty() bool {
	return in.Name == nil && in.Group == nil && in.Callback == nil
}

// Edit applies in to the bot and returns the orchestrator outcome.
func (a *App) Edit(ctx context.Context, botID string, in EditInput) (migration.Outcome, error) {
	bot, err := a.Bot(ctx, botID)
	if err != nil {
		return migration.Outcome{}, err
	}

	edits := migration.Edits{Name: in.Name, CallbackURL: in.Callback}
	if in.Group != nil {
		groupID, err := a.resolveGroup(ctx, *in.Group)
		if err != nil {
			return migration.Outcome{}, err
		}
		edits.GroupID = &groupID
	}

	return a.run(ctx, bot, migration.NewRequest(bot, edits))
}

// ReplaceAvatar rehosts the image at the http(s) URL source and attaches it to
// the bot in place.
func (a *App) ReplaceAvatar(ctx context.Context, botID, source string) (migration.Outcome, error) {
	return a.replaceAvatar(ctx, botID, func() (string, error) {
		return a.Avatars.RehostURL(ctx, source)
	})
}

// ReplaceAvatarFile is ReplaceAvatar for an image file on the local disk.
func (a *App) ReplaceAvatarFile(ctx context.Context, botID, path string) (migration.Outcome, error) {
	return a.replaceAvatar(ctx, botID, func() (string, error) {
		return a.Avatars.RehostFile(ctx, path)
	})
}

func (a *App) replaceAvatar(ctx context.Context, botID string, rehost func() (string, error)) (migration.Outcome, error) {
	bot, err := a.Bot(ctx, botID)
	if err != nil {
		return migration.Outcome{}, err
	}
	hosted, err := rehost()
	if err != nil {
		return migration.Outcome{}, fmt.Errorf("rehost avatar: %w", err)
	}
	return a.run(ctx, bot, migration.NewRequest(bot, migration.Edits{AvatarURL: &hosted}))
}

func (a *App) run(ctx context.Context, bot groupme.Bot, req migration.Request) (migration.Outcome, error) {
	out, err := a.Orchestrator.Run(ctx, bot, req)
	if out.Kind == migration.KindFailed && out.Stage == migration.StageValidate {
		return out, err
	}
	// The registry was touched; reload so the snapshot reflects what is really there.
	if _, refreshErr := a.ListBots(context.WithoutCancel(ctx)); refreshErr != nil {
		a.Logger.WarnContext(ctx, "Failed to refresh bot list after run", "error", refreshErr)
	}
	return out, err
}

func (a *App) resolveGroup(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", apperrors.NewValidationError("group", "group must not be empty")
	}
	groups, err := a.Registry.Groups(ctx)
	if err != nil {
		return "", fmt.Errorf("list groups: %w", err)
	}
	group, ok := groupme.ResolveGroup(groups, ref)
	if !ok {
		return "", apperrors.NewValidationError("group", fmt.Sprintf("no group matches %q", ref))
	}
	return group.ID, nil
}

// History returns the most recent journaled runs.
func (a *App) History(ctx context.Context, limit int) ([]database.MigrationEntry, error) {
	return a.Store.ListMigrations(ctx, limit)
}

// Describe renders an outcome with the configured message templates.
func Describe(msgs config.MessagesConfig, botID string, out migration.Outcome) string {
	switch out.Kind {
	case migration.KindUpdatedInPlace:
		return fmt.Sprintf(msgs.UpdatedFmt, out.BotID)
	case migration.KindMigrated:
		return fmt.Sprintf(msgs.MigratedFmt, out.OldBotID, out.NewBotID, out.AvatarCarried)
	case migration.KindFailed:
		if out.BotLost() {
			return fmt.Sprintf(msgs.BotLostFmt, botID, out.Err)
		}
		return fmt.Sprintf(msgs.FailedFmt, out.Stage, out.Err)
	default:
		return msgs.GeneralError
	}
}
