package avatar

import (
	"context"
	"fmt"
)

// Pipeline chains fetch, normalize and upload.
type Pipeline struct {
	Fetcher    *Fetcher
	Normalizer Normalizer
	Uploader   *Uploader
}

// Fetch delegates to the Fetcher.
func (p *Pipeline) Fetch(ctx context.Context, source string) (*Asset, error) {
	return p.Fetcher.Fetch(ctx, source)
}

// Normalize delegates to the Normalizer.
func (p *Pipeline) Normalize(asset *Asset) (*Asset, error) {
	return p.Normalizer.Normalize(asset)
}

// Upload delegates to the Uploader.
func (p *Pipeline) Upload(ctx context.Context, asset *Asset) (string, error) {
	return p.Uploader.Upload(ctx, asset)
}

// Rehost normalizes and uploads an asset the caller already holds.
func (p *Pipeline) Rehost(ctx context.Context, asset *Asset) (string, error) {
	normalized, err := p.Normalize(asset)
	if err != nil {
		return "", err
	}
	hosted, err := p.Upload(ctx, normalized)
	if err != nil {
		return "", err
	}
	return hosted, nil
}

// RehostURL fetches source and rehosts it.
func (p *Pipeline) RehostURL(ctx context.Context, source string) (string, error) {
	asset, err := p.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("fetch avatar: %w", err)
	}
	return p.Rehost(ctx, asset)
}

// RehostFile loads a local image file and rehosts it. Only operator-supplied
// paths may reach this.
func (p *Pipeline) RehostFile(ctx context.Context, path string) (string, error) {
	asset, err := LoadFile(path, p.Fetcher.maxBytes)
	if err != nil {
		return "", err
	}
	return p.Rehost(ctx, asset)
}
