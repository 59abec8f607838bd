// Package main is the botwarden command: a CLI over the bot registry and the
// long-running serve mode with the Telegram admin surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/config"
	"github.com/edgard/botwarden/internal/logger"
)

var version = "dev"

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "botwarden",
		Short: "Manage GroupMe bots: list, edit and move them between groups",
		Long: `botwarden manages the GroupMe bots of one account.

Moving a bot to another group destroys it and creates a replacement in the
target group; the avatar is carried over when possible. Run "botwarden serve"
for the Telegram admin bot and scheduled refreshes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./config.yaml", "path to configuration file")

	root.AddCommand(
		serveCmd(opts),
		botsCmd(opts),
		botCmd(opts),
		groupsCmd(opts),
		meCmd(opts),
		editCmd(opts),
		avatarCmd(opts),
		tokenCmd(opts),
		historyCmd(opts),
	)
	return root
}

// load reads configuration and sets up the logger.
func load(opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	return cfg, log, nil
}

// withApp builds the application for one CLI invocation and closes it afterwards.
func withApp(opts *options, fn func(a *app.App) error) error {
	cfg, log, err := load(opts)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
