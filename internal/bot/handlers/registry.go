package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is a command handler with its pattern and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every Telegram command keyed by its slash name.
// Photo messages captioned /avatar are served by NewDefaultHandler instead.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	command("start", NewStartHandler(deps))
	command("help", NewHelpHandler(deps))

	admin := AdminOnly(deps)
	command("token", NewTokenHandler(deps), admin)
	command("me", NewMeHandler(deps), admin)
	command("bots", NewBotsHandler(deps), admin)
	command("bot", NewBotHandler(deps), admin)
	command("groups", NewGroupsHandler(deps), admin)
	command("edit", NewEditHandler(deps), admin)
	command("avatar", NewAvatarUsageHandler(deps), admin)
	command("history", NewHistoryHandler(deps), admin)

	return handlers
}
