package migration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/edgard/botwarden/internal/avatar"
	"github.com/edgard/botwarden/internal/groupme"
)

type call struct {
	Op     string
	BotID  string
	Create groupme.CreateParams
	Fields groupme.UpdateFields
}

// fakeRegistry is an in-memory registry that records every call in order.
type fakeRegistry struct {
	mu      sync.Mutex
	bots    map[string]groupme.Bot
	calls   []call
	nextID  int
	created []groupme.Bot

	destroyErr error
	createErr  error
	updateErr  map[string]error

	// onDestroy runs after a successful destroy, before it returns.
	onDestroy func()
}

func newFakeRegistry(bots ...groupme.Bot) *fakeRegistry {
	r := &fakeRegistry{bots: map[string]groupme.Bot{}, updateErr: map[string]error{}}
	for _, b := range bots {
		r.bots[b.ID] = b
	}
	return r
}

func (r *fakeRegistry) Create(ctx context.Context, p groupme.CreateParams) (*groupme.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Op: "create", Create: p})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	b := groupme.Bot{
		ID:          fmt.Sprintf("new%d", r.nextID),
		Name:        p.Name,
		GroupID:     p.GroupID,
		AvatarURL:   p.AvatarURL,
		CallbackURL: p.CallbackURL,
	}
	r.bots[b.ID] = b
	r.created = append(r.created, b)
	return &b, nil
}

func (r *fakeRegistry) Update(ctx context.Context, botID string, f groupme.UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Op: "update", BotID: botID, Fields: f})
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.updateErr[botID]; err != nil {
		return err
	}
	b, ok := r.bots[botID]
	if !ok {
		return fmt.Errorf("bot %s not found", botID)
	}
	if f.Name != nil {
		b.Name = *f.Name
	}
	if f.AvatarURL != nil {
		b.AvatarURL = *f.AvatarURL
	}
	if f.CallbackURL != nil {
		b.CallbackURL = *f.CallbackURL
	}
	r.bots[botID] = b
	return nil
}

func (r *fakeRegistry) Destroy(ctx context.Context, botID string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call{Op: "destroy", BotID: botID})
	if err := ctx.Err(); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.destroyErr != nil {
		r.mu.Unlock()
		return r.destroyErr
	}
	delete(r.bots, botID)
	hook := r.onDestroy
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (r *fakeRegistry) list() []groupme.Bot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]groupme.Bot, 0, len(r.bots))
	for _, b := range r.bots {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeRegistry) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.Op)
	}
	return out
}

func (r *fakeRegistry) lastCall() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

// fakeAvatars serves canned assets and hosted URLs.
type fakeAvatars struct {
	mu        sync.Mutex
	fetched   []string
	uploaded  int
	fetchErr  error
	normErr   error
	uploadErr error
	hostedURL string
}

func (a *fakeAvatars) Fetch(_ context.Context, source string) (*avatar.Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetched = append(a.fetched, source)
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return &avatar.Asset{Data: []byte("png"), MIMEType: "image/png", Source: source}, nil
}

func (a *fakeAvatars) Normalize(asset *avatar.Asset) (*avatar.Asset, error) {
	if a.normErr != nil {
		return nil, a.normErr
	}
	return &avatar.Asset{Data: asset.Data, MIMEType: avatar.CanonicalMIMEType, Source: asset.Source}, nil
}

func (a *fakeAvatars) Upload(_ context.Context, asset *avatar.Asset) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !asset.Normalized() {
		return "", avatar.ErrNotNormalized
	}
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.uploaded++
	return a.hostedURL, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (m *memoryRecorder) RecordMigration(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}
