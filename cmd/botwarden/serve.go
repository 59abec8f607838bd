package main

import (
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/bot"
	"github.com/edgard/botwarden/internal/bot/handlers"
	"github.com/edgard/botwarden/internal/bot/tasks"
	"github.com/edgard/botwarden/internal/logger"
	"github.com/edgard/botwarden/internal/metrics"
	"github.com/edgard/botwarden/internal/telegram"
)

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram admin bot, scheduled tasks and the ops server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app.App) error {
				return serve(cmd, a)
			})
		},
	}
}

func serve(cmd *cobra.Command, a *app.App) error {
	ctx := cmd.Context()
	cfg := a.Config
	log := a.Logger

	log.Info("Starting botwarden", "version", version, "config", cfg.String())

	var tg *tgbot.Bot
	if cfg.Telegram.Token != "" {
		hDeps := handlers.HandlerDeps{Logger: log, Config: cfg, App: a}
		var err error
		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log,
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
		)
		if err != nil {
			return err
		}

		me, err := tg.GetMe(ctx)
		if err != nil {
			return fmt.Errorf("failed to get telegram bot info: %w", err)
		}
		cfg.Telegram.BotUsername = me.Username
		log.Info("Retrieved Telegram bot info", "bot_username", me.Username)

		commands := handlers.RegisterAllCommands(hDeps)
		if err := telegram.RegisterHandlers(tg, log, commands); err != nil {
			return err
		}
		if err := telegram.PublishCommands(ctx, tg, commands); err != nil {
			log.Warn("Could not publish command menu", "error", err)
		}
	} else {
		log.Warn("No Telegram token configured, running without the chat surface")
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:    log,
		Config:    cfg,
		Refresher: a,
		Store:     a.Store,
	}))
	if err != nil {
		return err
	}

	var ops *metrics.Server
	if cfg.Ops.Addr != "" {
		ops = metrics.NewServer(cfg.Ops.Addr, metrics.NewRouter(a.Metrics, a.Store), log)
	}

	return bot.NewBot(log, tg, sched, ops).Run(ctx)
}
