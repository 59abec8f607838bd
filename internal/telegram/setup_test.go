package telegram

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botwarden/internal/bot/handlers"
	"github.com/edgard/botwarden/internal/logger"
)

type recordingRegistrar struct {
	patterns []string
	funcs    []bot.HandlerFunc
}

func (r *recordingRegistrar) RegisterHandler(_ bot.HandlerType, pattern string, _ bot.MatchType, f bot.HandlerFunc, _ ...bot.Middleware) string {
	r.patterns = append(r.patterns, pattern)
	r.funcs = append(r.funcs, f)
	return pattern
}

func TestRegisterHandlersAppliesMiddlewareInOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				trace = append(trace, name)
				next(ctx, b, u)
			}
		}
	}

	reg := &recordingRegistrar{}
	err := RegisterHandlers(reg, logger.Discard(), map[string]handlers.RegisteredHandler{
		"/b": {Pattern: "b", Handler: func(context.Context, *bot.Bot, *models.Update) { trace = append(trace, "handler") },
			Middleware: []bot.Middleware{mw("outer"), mw("inner")}},
		"/a":   {Pattern: "a", Handler: func(context.Context, *bot.Bot, *models.Update) {}},
		"/nil": {Pattern: "nil"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.patterns)

	reg.funcs[1](context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestRegisterHandlersNilBot(t *testing.T) {
	t.Parallel()

	assert.Error(t, RegisterHandlers(nil, logger.Discard(), nil))
}

func TestMenu(t *testing.T) {
	t.Parallel()

	cmds := menu(map[string]handlers.RegisteredHandler{
		"/start": {Pattern: "start"},
		"/edit":  {Pattern: "edit"},
		"/bots":  {Pattern: "bots"},
	})
	require.Len(t, cmds, 2)
	assert.Equal(t, "bots", cmds[0].Command)
	assert.Equal(t, "edit", cmds[1].Command)
}

func TestNewTelegramBotRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramBot("", logger.Discard())
	assert.Error(t, err)
}
