package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/avatar"
	"github.com/edgard/botwarden/internal/config"
	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/groupme"
	"github.com/edgard/botwarden/internal/migration"
)

const (
	// maxMessageLength is Telegram's limit for one text message.
	maxMessageLength = 4096
	sendTimeout      = 10 * time.Second
)

func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   clip(text, maxMessageLength),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// errorText maps an operation error to the reply shown to the admin.
func errorText(msgs config.MessagesConfig, err error) string {
	var (
		notFound   *app.BotNotFoundError
		validation *apperrors.ValidationError
		stage      *migration.StageError
		httpErr    *apperrors.HTTPError
		decodeErr  *avatar.ImageDecodeError
		uploadErr  *avatar.UploadError
	)
	switch {
	case errors.Is(err, groupme.ErrNoToken):
		return msgs.TokenMissing
	case errors.As(err, &notFound):
		return fmt.Sprintf(msgs.BotNotFoundFmt, notFound.BotID)
	case errors.Is(err, migration.ErrMigrationInFlight):
		return err.Error()
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &stage):
		return fmt.Sprintf(msgs.FailedFmt, stage.Stage, stage.Err)
	case errors.As(err, &decodeErr):
		return "That image could not be read: " + decodeErr.Error()
	case errors.As(err, &uploadErr):
		return fmt.Sprintf("Image upload failed with status %d.", uploadErr.StatusCode)
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Registry answered %d: %s", httpErr.Status, clip(httpErr.Body, 200))
	default:
		return msgs.GeneralError
	}
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const marker = "\n…"
	cut := limit - len(marker)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

// commandArgs returns the text after the command word, so "/bot@name b1" yields "b1".
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}
