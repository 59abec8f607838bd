package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTokenHandler returns a handler for /token <access token> and /token clear.
func NewTokenHandler(deps HandlerDeps) bot.HandlerFunc {
	return tokenHandler{deps}.Handle
}

type tokenHandler struct {
	deps HandlerDeps
}

func (h tokenHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "token")
	msg := update.Message
	chatID := msg.Chat.ID

	arg := commandArgs(msg.Text)

	// The message carries a credential; remove it from the chat whatever happens next.
	if arg != "" {
		if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: msg.ID}); err != nil {
			log.WarnContext(ctx, "Failed to delete token message", "error", err, "chat_id", chatID)
		}
	}

	switch strings.ToLower(arg) {
	case "":
		reply(ctx, b, log, chatID, "Usage: /token <access token> or /token clear")
	case "clear":
		if err := h.deps.App.Store.ClearToken(ctx); err != nil {
			log.ErrorContext(ctx, "Failed to clear token", "error", err)
			reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
			return
		}
		reply(ctx, b, log, chatID, "Access token cleared.")
	default:
		if err := h.deps.App.Store.SaveToken(ctx, arg); err != nil {
			log.ErrorContext(ctx, "Failed to save token", "error", err)
			reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
			return
		}
		reply(ctx, b, log, chatID, h.deps.Config.Messages.TokenSaved)
	}
}
