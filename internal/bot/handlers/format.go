package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/botwarden/internal/app"
	"github.com/edgard/botwarden/internal/config"
	"github.com/edgard/botwarden/internal/database"
	"github.com/edgard/botwarden/internal/groupme"
)

func formatBots(bots []groupme.Bot, empty string) string {
	if len(bots) == 0 {
		return empty
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bots (%d):\n", len(bots))
	for _, b := range bots {
		group := b.GroupName
		if group == "" {
			group = b.GroupID
		}
		fmt.Fprintf(&sb, "• %s [%s] in %s\n", b.Name, b.ID, group)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatBotList(msgs config.MessagesConfig, list app.BotList) string {
	text := formatBots(list.Bots, msgs.NoBots)
	if !list.Stale {
		return text
	}
	return fmt.Sprintf(msgs.StaleListFmt, list.AsOf.UTC().Format(time.RFC822)) + "\n\n" + text
}

func formatBot(b groupme.Bot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "ID: %s\n", b.ID)
	if b.GroupName != "" {
		fmt.Fprintf(&sb, "Group: %s (%s)\n", b.GroupName, b.GroupID)
	} else {
		fmt.Fprintf(&sb, "Group: %s\n", b.GroupID)
	}
	fmt.Fprintf(&sb, "Avatar: %s\n", orNone(b.AvatarURL))
	fmt.Fprintf(&sb, "Callback: %s\n", orNone(b.CallbackURL))
	fmt.Fprintf(&sb, "DM notification: %t", b.DMNotification)
	return sb.String()
}

func formatGroups(groups []groupme.Group) string {
	if len(groups) == 0 {
		return "No groups found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Groups (%d):\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(&sb, "• %s [%s]\n", g.Name, g.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatUser(u *groupme.User) string {
	return fmt.Sprintf("Signed in as %s (id %s)", u.Name, u.ID)
}

func formatHistory(entries []database.MigrationEntry) string {
	if len(entries) == 0 {
		return "No operations recorded yet."
	}
	var sb strings.Builder
	for _, e := range entries {
		when := e.FinishedAt.Format("2006-01-02 15:04")
		switch {
		case e.BotLost():
			fmt.Fprintf(&sb, "%s %s %q LOST at create: %s\n", when, e.BotID, e.RequestName, e.ErrorMessage)
		case e.Stage != "":
			fmt.Fprintf(&sb, "%s %s %q failed at %s: %s\n", when, e.BotID, e.RequestName, e.Stage, e.ErrorMessage)
		case e.NewBotID != "":
			fmt.Fprintf(&sb, "%s %s → %s %q moved to %s (avatar carried: %t)\n",
				when, e.OldBotID, e.NewBotID, e.RequestName, e.RequestGroup, e.AvatarCarried)
		default:
			fmt.Fprintf(&sb, "%s %s %q updated\n", when, e.BotID, e.RequestName)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
