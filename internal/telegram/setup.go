// Package telegram builds the go-telegram bot and registers the admin command handlers.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botwarden/internal/bot/handlers"
)

// NewTelegramBot creates a go-telegram bot for token.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created")
	return b, nil
}

// applyMiddleware wraps handler so the first middleware in mw is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Registrar is the part of *bot.Bot that handler registration needs.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
}

// RegisterHandlers registers every handler with its own middleware applied.
func RegisterHandlers(b Registrar, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registered) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	count := 0
	for _, name := range sortedNames(registered) {
		h := registered[name]
		if h.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", h.Pattern)
			continue
		}
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, applyMiddleware(h.Handler, h.Middleware))
		log.Debug("Registered handler", "pattern", h.Pattern, "middleware_count", len(h.Middleware))
		count++
	}

	log.Info("Registered Telegram handlers", "count", count)
	return nil
}

// commandDescriptions feed the client-side command menu.
var commandDescriptions = map[string]string{
	"bots":    "List bots",
	"bot":     "Show one bot",
	"groups":  "List groups",
	"edit":    "Rename, move or change a bot's callback",
	"avatar":  "Replace a bot's avatar (photo caption)",
	"history": "Recent operations",
	"me":      "Show the GroupMe account",
	"token":   "Save or clear the GroupMe access token",
	"help":    "Show help",
}

// PublishCommands sets the command menu shown by Telegram clients.
func PublishCommands(ctx context.Context, b *bot.Bot, registered map[string]handlers.RegisteredHandler) error {
	_, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: menu(registered)})
	if err != nil {
		return fmt.Errorf("failed to publish commands: %w", err)
	}
	return nil
}

func menu(registered map[string]handlers.RegisteredHandler) []models.BotCommand {
	var cmds []models.BotCommand
	for _, name := range sortedNames(registered) {
		pattern := registered[name].Pattern
		if desc, ok := commandDescriptions[pattern]; ok {
			cmds = append(cmds, models.BotCommand{Command: pattern, Description: desc})
		}
	}
	return cmds
}

func sortedNames(registered map[string]handlers.RegisteredHandler) []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
