package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const defaultHistoryLimit = 10

// NewHistoryHandler returns a handler for /history [n].
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps}.Handle
}

type historyHandler struct {
	deps HandlerDeps
}

func (h historyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "history")
	chatID := update.Message.Chat.ID

	limit := defaultHistoryLimit
	if arg := commandArgs(update.Message.Text); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > 100 {
			reply(ctx, b, log, chatID, "Usage: /history [1-100]")
			return
		}
		limit = n
	}

	entries, err := h.deps.App.History(ctx, limit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read history", "error", err)
		reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
		return
	}
	reply(ctx, b, log, chatID, formatHistory(entries))
}
