package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMeHandler returns a handler for /me.
func NewMeHandler(deps HandlerDeps) bot.HandlerFunc {
	return meHandler{deps}.Handle
}

type meHandler struct {
	deps HandlerDeps
}

func (h meHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "me")
	chatID := update.Message.Chat.ID

	user, err := h.deps.App.Me(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load account", "error", err)
		reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
		return
	}
	reply(ctx, b, log, chatID, formatUser(user))
}
