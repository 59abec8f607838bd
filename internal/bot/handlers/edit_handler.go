package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/migration"
)

// NewEditHandler returns a handler for /edit <id> key=value; key=value.
// Keys are name, group (id or name) and callback.
func NewEditHandler(deps HandlerDeps) bot.HandlerFunc {
	return editHandler{deps}.Handle
}

type editHandler struct {
	deps HandlerDeps
}

func (h editHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "edit")
	chatID := update.Message.Chat.ID

	botID, input, err := parseEditArgs(commandArgs(update.Message.Text))
	if err != nil {
		reply(ctx, b, log, chatID, err.Error()+"\n"+h.deps.Config.Messages.EditUsage)
		return
	}

	log.InfoContext(ctx, "Editing bot", "bot_id", botID,
		"name", input.Name != nil, "group", input.Group != nil, "callback", input.Callback != nil)

	out, err := h.deps.App.Edit(ctx, botID, input)
	reply(ctx, b, log, chatID, outcomeText(h.deps, botID, out, err))
}

// outcomeText renders the result of an orchestrator run, or the error that kept it from starting.
func outcomeText(deps HandlerDeps, botID string, out migration.Outcome, err error) string {
	if out.Kind == "" {
		return errorText(deps.Config.Messages, err)
	}
	if out.Kind == migration.KindFailed && out.Stage == migration.StageValidate {
		return errorText(deps.Config.Messages, err)
	}
	return app.Describe(deps.Config.Messages, botID, out)
}

var editKeys = map[string]string{
	"name":         "name",
	"group":        "group",
	"group_id":     "group",
	"callback":     "callback",
	"callback_url": "callback",
}

// parseEditArgs parses "<bot_id> key=value; key=value". A callback may be set
// to an empty value to clear it; name and group may not.
func parseEditArgs(args string) (string, app.EditInput, error) {
	var input app.EditInput

	botID, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return "", input, fmt.Errorf("missing bot id")
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(rest, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rawKey, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", input, fmt.Errorf("expected key=value, got %q", part)
		}
		key, known := editKeys[strings.ToLower(strings.TrimSpace(rawKey))]
		if !known {
			return "", input, fmt.Errorf("unknown field %q", strings.TrimSpace(rawKey))
		}
		if seen[key] {
			return "", input, fmt.Errorf("field %q given twice", key)
		}
		seen[key] = true

		value = strings.TrimSpace(value)
		switch key {
		case "name":
			if value == "" {
				return "", input, fmt.Errorf("name must not be empty")
			}
			input.Name = &value
		case "group":
			if value == "" {
				return "", input, fmt.Errorf("group must not be empty")
			}
			input.Group = &value
		case "callback":
			input.Callback = &value
		}
	}

	if input.Empty() {
		return "", input, fmt.Errorf("nothing to change")
	}
	return botID, input, nil
}
