package handlers

import (
	"log/slog"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/config"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	App    *app.App
}
