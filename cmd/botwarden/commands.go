package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/migration"
)

func botsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bots",
		Short: "List the account's bots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app.App) error {
				list, err := a.Bots(cmd.Context())
				if err != nil {
					return err
				}
				if list.Stale {
					fmt.Fprintf(cmd.ErrOrStderr(), a.Config.Messages.StaleListFmt+"\n", list.AsOf.Local().Format(time.DateTime))
				}
				bots := list.Bots
				w := table(cmd.OutOrStdout(), "ID", "NAME", "GROUP", "CALLBACK")
				for _, b := range bots {
					group := b.GroupID
					if b.GroupName != "" {
						group = b.GroupName + " (" + b.GroupID + ")"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, group, b.CallbackURL)
				}
				return w.Flush()
			})
		},
	}
}

func botCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bot <bot_id>",
		Short: "Show one bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				b, err := a.Bot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:              %s\n", b.ID)
				fmt.Fprintf(out, "Name:            %s\n", b.Name)
				fmt.Fprintf(out, "Group:           %s %s\n", b.GroupID, b.GroupName)
				fmt.Fprintf(out, "Avatar:          %s\n", b.AvatarURL)
				fmt.Fprintf(out, "Callback:        %s\n", b.CallbackURL)
				fmt.Fprintf(out, "DM notification: %t\n", b.DMNotification)
				return nil
			})
		},
	}
}

func groupsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the account's groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app.App) error {
				groups, err := a.Groups(cmd.Context())
				if err != nil {
					return err
				}
				w := table(cmd.OutOrStdout(), "ID", "NAME")
				for _, g := range groups {
					fmt.Fprintf(w, "%s\t%s\n", g.ID, g.Name)
				}
				return w.Flush()
			})
		},
	}
}

func meCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the account owning the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app.App) error {
				u, err := a.Me(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
}

func editCmd(opts *options) *cobra.Command {
	var name, group, callback string

	cmd := &cobra.Command{
		Use:   "edit <bot_id>",
		Short: "Rename a bot, change its callback, or move it to another group",
		Long: `Edit a bot. Changing --group destroys the bot and recreates it in the
target group; the new bot gets a new id. If recreation fails after the
old bot was deleted, the bot is lost and must be recreated by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in app.EditInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("group") {
				in.Group = &group
			}
			if cmd.Flags().Changed("callback") {
				in.Callback = &callback
			}
			if in.Empty() {
				return fmt.Errorf("nothing to change: pass --name, --group or --callback")
			}

			return withApp(opts, func(a *app.App) error {
				out, err := a.Edit(cmd.Context(), args[0], in)
				return report(cmd.OutOrStdout(), a, args[0], out, err)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new bot name")
	cmd.Flags().StringVar(&group, "group", "", "target group id or name")
	cmd.Flags().StringVar(&callback, "callback", "", "new callback URL (empty to clear)")
	return cmd
}

func avatarCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <bot_id> <image path or URL>",
		Short: "Replace a bot's avatar with a local file or remote image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				var (
					out migration.Outcome
					err error
				)
				if path, ok := localPath(args[1]); ok {
					out, err = a.ReplaceAvatarFile(cmd.Context(), args[0], path)
				} else {
					out, err = a.ReplaceAvatar(cmd.Context(), args[0], args[1])
				}
				return report(cmd.OutOrStdout(), a, args[0], out, err)
			})
		},
	}
}

// localPath reports whether source names a local file, as a bare path or a
// file:// URL, and returns the path.
func localPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" {
		return source, true
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return u.Path, true
	case "http", "https":
		return "", false
	default:
		// Windows drive letters parse as a one-letter scheme.
		if len(u.Scheme) == 1 {
			return source, true
		}
		return "", false
	}
}

// report prints an orchestrator outcome. Errors that kept the run from starting pass through.
func report(w io.Writer, a *app.App, botID string, out migration.Outcome, err error) error {
	if out.Kind == "" || (out.Kind == migration.KindFailed && out.Stage == migration.StageValidate) {
		return err
	}
	fmt.Fprintln(w, app.Describe(a.Config.Messages, botID, out))
	return err
}

func tokenCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored GroupMe access token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <access token>",
			Short: "Store the access token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(a *app.App) error {
					if err := a.Store.SaveToken(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), a.Config.Messages.TokenSaved)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(opts, func(a *app.App) error {
					return a.Store.ClearToken(cmd.Context())
				})
			},
		},
	)
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent edit and move operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app.App) error {
				entries, err := a.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				w := table(cmd.OutOrStdout(), "FINISHED", "BOT", "NAME", "RESULT", "NEW ID", "AVATAR", "ERROR")
				for _, e := range entries {
					result := e.Kind
					if e.Stage != "" {
						result += "@" + e.Stage
					}
					if e.BotLost() {
						result += " (LOST)"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						e.FinishedAt.Local().Format("2006-01-02 15:04:05"), e.BotID, e.RequestName,
						result, e.NewBotID, strconv.FormatBool(e.AvatarCarried), e.ErrorMessage)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func table(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}
