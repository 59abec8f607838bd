package avatar

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

	apperrors "github.com/edgard/botwarden/internal/errors"
)

// ErrNotNormalized is returned when an asset skipped normalization before upload.
var ErrNotNormalized = errors.New("avatar must be normalized before upload")

// TokenSource yields the access token for the image service.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Uploader posts raw image bytes to the hosting endpoint.
type Uploader struct {
	http     *http.Client
	endpoint string
	tokens   TokenSource
	log      *slog.Logger
}

// NewUploader creates an Uploader for endpoint.
func NewUploader(httpClient *http.Client, endpoint string, tokens TokenSource, logger *slog.Logger) *Uploader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		http:     httpClient,
		endpoint: endpoint,
		tokens:   tokens,
		log:      logger.With("component", "avatar_uploader"),
	}
}

type uploadResponse struct {
	Payload struct {
		URL        string `json:"url"`
		PictureURL string `json:"picture_url"`
	} `json:"payload"`
}

// Upload sends a normalized asset and returns its hosted URL.
func (u *Uploader) Upload(ctx context.Context, asset *Asset) (string, error) {
	if !asset.Normalized() {
		return "", ErrNotNormalized
	}
	token, err := u.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(asset.Data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("X-Access-Token", token)
	req.Header.Set("Content-Type", asset.MIMEType)
	req.ContentLength = int64(len(asset.Data))

	resp, err := u.http.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("upload avatar", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &UploadError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	hosted := out.Payload.URL
	if hosted == "" {
		hosted = out.Payload.PictureURL
	}
	if hosted == "" {
		return "", fmt.Errorf("upload response carried no url")
	}

	u.log.InfoContext(ctx, "Avatar uploaded", "bytes", len(asset.Data), "url", hosted)
	return hosted, nil
}
