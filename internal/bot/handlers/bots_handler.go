package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBotsHandler returns a handler for /bots, the list view.
func NewBotsHandler(deps HandlerDeps) bot.HandlerFunc {
	return botsHandler{deps}.Handle
}

type botsHandler struct {
	deps HandlerDeps
}

func (h botsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "bots")
	chatID := update.Message.Chat.ID

	list, err := h.deps.App.Bots(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list bots", "error", err)
		reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
		return
	}
	log.InfoContext(ctx, "Listed bots", "count", len(list.Bots), "stale", list.Stale)
	reply(ctx, b, log, chatID, formatBotList(h.deps.Config.Messages, list))
}

// NewBotHandler returns a handler for /bot <id>, the detail view.
func NewBotHandler(deps HandlerDeps) bot.HandlerFunc {
	return botHandler{deps}.Handle
}

type botHandler struct {
	deps HandlerDeps
}

func (h botHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "bot")
	chatID := update.Message.Chat.ID

	botID := commandArgs(update.Message.Text)
	if botID == "" {
		reply(ctx, b, log, chatID, "Usage: /bot <bot_id>")
		return
	}

	found, err := h.deps.App.Bot(ctx, botID)
	if err != nil {
		log.WarnContext(ctx, "Failed to load bot", "bot_id", botID, "error", err)
		reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
		return
	}
	reply(ctx, b, log, chatID, formatBot(found))
}

// NewGroupsHandler returns a handler for /groups.
func NewGroupsHandler(deps HandlerDeps) bot.HandlerFunc {
	return groupsHandler{deps}.Handle
}

type groupsHandler struct {
	deps HandlerDeps
}

func (h groupsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "groups")
	chatID := update.Message.Chat.ID

	groups, err := h.deps.App.Groups(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list groups", "error", err)
		reply(ctx, b, log, chatID, errorText(h.deps.Config.Messages, err))
		return
	}
	reply(ctx, b, log, chatID, formatGroups(groups))
}
