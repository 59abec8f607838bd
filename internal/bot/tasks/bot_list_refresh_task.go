package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/groupme"
)

const refreshTimeout = time.Minute

// newBotListRefreshTask reloads the bot list into the snapshot. It skips quietly
// when no token is stored or when a bot is being edited.
func newBotListRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "bot_list_refresh")

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()

		bots, err := deps.Refresher.Refresh(ctx)
		switch {
		case errors.Is(err, app.ErrRefreshDeferred):
			log.InfoContext(ctx, "Bot list refresh deferred, an operation is in flight")
			return nil
		case errors.Is(err, groupme.ErrNoToken):
			log.DebugContext(ctx, "Bot list refresh skipped, no access token")
			return nil
		case err != nil:
			return fmt.Errorf("bot list refresh failed: %w", err)
		}

		log.InfoContext(ctx, "Bot list refreshed", "count", len(bots))
		return nil
	}
}
