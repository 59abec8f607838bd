package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/edgard/botwarden/internal/errors"
)

// FetchStrategy decides which URL is actually requested for a source image.
type FetchStrategy interface {
	Name() string
	RequestURL(source *url.URL) (string, error)
}

// Direct requests the source URL as is.
type Direct struct{}

// Name implements FetchStrategy.
func (Direct) Name() string { return "direct" }

// RequestURL implements FetchStrategy.
func (Direct) RequestURL(source *url.URL) (string, error) {
	return source.String(), nil
}

// TelegramFileHost serves Telegram file downloads. Its URLs carry the bot token,
// so they are always requested directly and never through a proxy.
const TelegramFileHost = "api.telegram.org"

// Proxied routes requests through a proxy unless the source host is allowed directly.
// Template either contains a {url} placeholder or has the escaped source URL appended.
type Proxied struct {
	Template    string
	DirectHosts []string
}

// Name implements FetchStrategy.
func (Proxied) Name() string { return "proxied" }

// RequestURL implements FetchStrategy.
func (p Proxied) RequestURL(source *url.URL) (string, error) {
	if p.Template == "" {
		return "", fmt.Errorf("proxied fetch strategy has no proxy URL")
	}
	if p.allowsDirect(source.Hostname()) {
		return source.String(), nil
	}
	escaped := url.QueryEscape(source.String())
	if strings.Contains(p.Template, "{url}") {
		return strings.ReplaceAll(p.Template, "{url}", escaped), nil
	}
	return p.Template + escaped, nil
}

func (p Proxied) allowsDirect(host string) bool {
	host = strings.ToLower(host)
	if host == TelegramFileHost {
		return true
	}
	for _, h := range p.DirectHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// NewStrategy builds a strategy from configuration values.
func NewStrategy(name, proxyURL string, directHosts []string) (FetchStrategy, error) {
	switch name {
	case "", "direct":
		return Direct{}, nil
	case "proxied":
		if proxyURL == "" {
			return nil, fmt.Errorf("proxied fetch strategy requires a proxy URL")
		}
		return Proxied{Template: proxyURL, DirectHosts: directHosts}, nil
	default:
		return nil, fmt.Errorf("unknown fetch strategy %q", name)
	}
}

// Fetcher retrieves avatar bytes from URLs or local files.
type Fetcher struct {
	http     *http.Client
	strategy FetchStrategy
	maxBytes int64
	log      *slog.Logger
}

// NewFetcher creates a Fetcher. A nil strategy means Direct.
func NewFetcher(httpClient *http.Client, strategy FetchStrategy, maxBytes int64, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strategy == nil {
		strategy = Direct{}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		http:     httpClient,
		strategy: strategy,
		maxBytes: maxBytes,
		log:      logger.With("component", "avatar_fetcher", "strategy", strategy.Name()),
	}
}

// Fetch retrieves source, which must be an http(s) URL. Local files are never read
// here; see LoadFile. Callers treat any error as "no avatar".
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Asset, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty avatar source")
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse avatar source: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchRemote(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported avatar source scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, source *url.URL) (*Asset, error) {
	target, err := f.strategy.RequestURL(source)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build avatar request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	f.log.DebugContext(ctx, "Fetching avatar", "host", source.Host, "proxied", target != source.String())

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch avatar", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewHTTPError("fetch avatar", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	asset, err := FromReader(resp.Body, source.Redacted(), f.maxBytes)
	if err != nil {
		return nil, err
	}
	asset.MIMEType = sniff(asset.Data, resp.Header.Get("Content-Type"))
	return asset, nil
}
