// Package groupme is the registry client: list, create, update and destroy bots,
// plus the read-only group and account lookups.
package groupme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/metrics"
)

// ErrNoToken is returned when no access token is stored.
var ErrNoToken = errors.New("no access token configured")

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// TokenSource yields the access token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Metrics           *metrics.Collectors
}

// Client talks to the bot registry. It performs no retries.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  TokenSource
	limiter *rate.Limiter
	metrics *metrics.Collectors
	log     *slog.Logger
}

// NewClient creates a registry client.
func NewClient(opts Options, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		tokens:  tokens,
		limiter: limiter,
		metrics: opts.Metrics,
		log:     logger.With("component", "registry_client"),
	}
}

// List returns the account's bots in registry order. Callers sort with SortBots.
func (c *Client) List(ctx context.Context) ([]Bot, error) {
	var out envelope[[]Bot]
	if err := c.do(ctx, "list", http.MethodGet, "/bots", nil, &out); err != nil {
		return nil, err
	}
	return out.Response, nil
}

// Create registers a new bot in params.GroupID.
func (c *Client) Create(ctx context.Context, params CreateParams) (*Bot, error) {
	payload := botRequest[createPayload]{Bot: createPayload(params)}

	var out envelope[createResponse]
	if err := c.do(ctx, "create", http.MethodPost, "/bots", payload, &out); err != nil {
		return nil, err
	}
	if out.Response.Bot.ID == "" {
		return nil, fmt.Errorf("create: registry returned no bot_id")
	}
	bot := out.Response.Bot
	if bot.GroupID == "" {
		bot.GroupID = params.GroupID
	}
	c.log.InfoContext(ctx, "Bot created", "bot_id", bot.ID, "group_id", bot.GroupID)
	return &bot, nil
}

// Update sends only the non-nil fields for botID.
func (c *Client) Update(ctx context.Context, botID string, fields UpdateFields) error {
	if botID == "" {
		return apperrors.NewValidationError("bot_id", "bot id is required")
	}
	payload := botRequest[updatePayload]{Bot: updatePayload{BotID: botID, UpdateFields: fields}}
	if err := c.do(ctx, "update", http.MethodPost, "/bots/update", payload, nil); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "Bot updated", "bot_id", botID)
	return nil
}

// Destroy deletes botID. A 404 counts as success since the bot is already absent.
func (c *Client) Destroy(ctx context.Context, botID string) error {
	if botID == "" {
		return apperrors.NewValidationError("bot_id", "bot id is required")
	}
	err := c.do(ctx, "destroy", http.MethodPost, "/bots/destroy", destroyRequest{BotID: botID}, nil)
	if apperrors.IsStatus(err, http.StatusNotFound) {
		c.log.InfoContext(ctx, "Bot already absent", "bot_id", botID)
		return nil
	}
	if err != nil {
		return err
	}
	c.log.InfoContext(ctx, "Bot destroyed", "bot_id", botID)
	return nil
}

// Groups lists up to 100 groups the account belongs to.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var out envelope[[]Group]
	if err := c.do(ctx, "groups", http.MethodGet, "/groups?per_page=100", nil, &out); err != nil {
		return nil, err
	}
	return out.Response, nil
}

// Me returns the account owning the token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out envelope[User]
	if err := c.do(ctx, "me", http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Response, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewNetworkError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("X-Access-Token", token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveRequest(op, status, time.Since(start))
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "Registry request failed", "op", op, "error", err)
		return apperrors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.WarnContext(ctx, "Registry returned error status", "op", op, "status", resp.StatusCode)
		return apperrors.NewHTTPError(op, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
