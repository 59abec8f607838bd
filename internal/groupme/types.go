package groupme

import (
	"sort"
	"strings"
)

// Bot is a registry bot. GroupID never changes for a given ID.
type Bot struct {
	ID             string `json:"bot_id"`
	Name           string `json:"name"`
	GroupID        string `json:"group_id"`
	GroupName      string `json:"group_name,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	CallbackURL    string `json:"callback_url,omitempty"`
	DMNotification bool   `json:"dm_notification,omitempty"`
}

// Group is a chat channel a bot can be bound to.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the account that owns the token.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// CreateParams are the fields of a new bot. Empty optional fields are left out of the payload.
type CreateParams struct {
	Name           string
	GroupID        string
	AvatarURL      string
	CallbackURL    string
	DMNotification bool
}

// UpdateFields is a partial update; nil fields are not sent.
type UpdateFields struct {
	Name           *string `json:"name,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CallbackURL    *string `json:"callback_url,omitempty"`
	DMNotification *bool   `json:"dm_notification,omitempty"`
}

// String returns a pointer to s, for building UpdateFields.
func String(s string) *string {
	return &s
}

// SortBots orders bots by name, case-insensitive ascending. The registry does not guarantee an order.
func SortBots(bots []Bot) {
	sort.SliceStable(bots, func(i, j int) bool {
		return strings.ToLower(bots[i].Name) < strings.ToLower(bots[j].Name)
	})
}

// SortGroups orders groups by name, case-insensitive ascending.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
}

// FindBot returns the bot with the given ID.
func FindBot(bots []Bot, id string) (Bot, bool) {
	for _, b := range bots {
		if b.ID == id {
			return b, true
		}
	}
	return Bot{}, false
}

// ResolveGroup matches ref against group IDs first, then names case-insensitively.
func ResolveGroup(groups []Group, ref string) (Group, bool) {
	ref = strings.TrimSpace(ref)
	for _, g := range groups {
		if g.ID == ref {
			return g, true
		}
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, ref) {
			return g, true
		}
	}
	return Group{}, false
}

type envelope[T any] struct {
	Response T `json:"response"`
	Meta     struct {
		Code   int      `json:"code"`
		Errors []string `json:"errors"`
	} `json:"meta"`
}

type createResponse struct {
	Bot Bot `json:"bot"`
}

type createPayload struct {
	Name           string `json:"name"`
	GroupID        string `json:"group_id"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	CallbackURL    string `json:"callback_url,omitempty"`
	DMNotification bool   `json:"dm_notification,omitempty"`
}

type updatePayload struct {
	BotID string `json:"bot_id"`
	UpdateFields
}

type botRequest[T any] struct {
	Bot T `json:"bot"`
}

type destroyRequest struct {
	BotID string `json:"bot_id"`
}
