package migration

import (
	"strings"

	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/groupme"
)

// Request is the desired state of a bot after a run.
type Request struct {
	Name        string
	GroupID     string
	CallbackURL string
	// AvatarURL is the avatar reference as currently held. It may already point
	// at an image the user uploaded directly.
	AvatarURL string
}

// Edits are user-supplied changes; nil fields keep the bot's current value.
type Edits struct {
	Name        *string
	GroupID     *string
	CallbackURL *string
	AvatarURL   *string
}

// NewRequest applies edits on top of bot.
func NewRequest(bot groupme.Bot, edits Edits) Request {
	req := Request{
		Name:        bot.Name,
		GroupID:     bot.GroupID,
		CallbackURL: bot.CallbackURL,
		AvatarURL:   bot.AvatarURL,
	}
	if edits.Name != nil {
		req.Name = *edits.Name
	}
	if edits.GroupID != nil {
		req.GroupID = *edits.GroupID
	}
	if edits.CallbackURL != nil {
		req.CallbackURL = *edits.CallbackURL
	}
	if edits.AvatarURL != nil {
		req.AvatarURL = *edits.AvatarURL
	}
	return req.normalized()
}

func (r Request) normalized() Request {
	r.Name = strings.TrimSpace(r.Name)
	r.GroupID = strings.TrimSpace(r.GroupID)
	r.CallbackURL = strings.TrimSpace(r.CallbackURL)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	return r
}

// Validate rejects requests that must never reach the registry.
func (r Request) Validate() error {
	r = r.normalized()
	if r.Name == "" {
		return apperrors.NewValidationError("name", "bot name must not be empty")
	}
	if r.GroupID == "" {
		return apperrors.NewValidationError("group_id", "target group must not be empty")
	}
	return nil
}
