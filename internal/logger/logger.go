// Package logger provides structured logging for botwarden.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a new slog Logger writing to stdout with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger on an arbitrary writer without touching the default logger.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware logs every incoming Telegram update with its chat, sender and a
// short text preview. Text of /token commands is never logged.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			started := time.Now()
			entry := log.With(append([]any{"update_id", update.ID}, updateAttrs(update)...)...)

			entry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			entry.InfoContext(ctx, "Finished processing update", "duration", time.Since(started))
		}
	}
}

func updateAttrs(update *models.Update) []any {
	switch {
	case update.Message != nil:
		msg := update.Message
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		text := msg.Text
		if text == "" {
			text = msg.Caption
		}
		return []any{
			"update_type", "message",
			"message_id", msg.ID,
			"chat_id", msg.Chat.ID,
			"user_id", userID,
			"has_photo", len(msg.Photo) > 0,
			"text_preview", preview(text, 50),
		}
	case update.CallbackQuery != nil:
		return []any{
			"update_type", "callback_query",
			"callback_query_id", update.CallbackQuery.ID,
			"user_id", update.CallbackQuery.From.ID,
		}
	default:
		return []any{"update_type", "other"}
	}
}

// preview shortens text to at most maxLen bytes on a rune boundary and hides
// the argument of /token.
func preview(text string, maxLen int) string {
	if strings.HasPrefix(text, "/token") {
		return "/token [redacted]"
	}
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen - len("...")
	if cut <= 0 {
		return "..."
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
