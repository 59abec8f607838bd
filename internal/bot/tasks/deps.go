// Package tasks implements the scheduled jobs: periodic bot list refresh and
// database maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/botwarden/internal/config"
	"github.com/edgard/botwarden/internal/groupme"
)

// Refresher reloads the bot list, deferring while an orchestrator run is active.
type Refresher interface {
	Refresh(ctx context.Context) ([]groupme.Bot, error)
}

// Maintainer runs database housekeeping.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context, keep int) error
}

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Refresher Refresher
	Store     Maintainer
}
