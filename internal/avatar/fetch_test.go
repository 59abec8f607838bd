package avatar

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botwarden/internal/logger"
)

func TestProxiedRequestURL(t *testing.T) {
	t.Parallel()

	src, err := url.Parse("https://cdn.example.com/a.png?x=1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		strategy Proxied
		want     string
	}{
		{
			name:     "placeholder",
			strategy: Proxied{Template: "https://proxy.test/fetch?url={url}&mode=raw"},
			want:     "https://proxy.test/fetch?url=https%3A%2F%2Fcdn.example.com%2Fa.png%3Fx%3D1&mode=raw",
		},
		{
			name:     "append",
			strategy: Proxied{Template: "https://proxy.test/?"},
			want:     "https://proxy.test/?https%3A%2F%2Fcdn.example.com%2Fa.png%3Fx%3D1",
		},
		{
			name:     "direct host bypasses proxy",
			strategy: Proxied{Template: "https://proxy.test/?", DirectHosts: []string{"example.com"}},
			want:     "https://cdn.example.com/a.png?x=1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.strategy.RequestURL(src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = Proxied{}.RequestURL(src)
	assert.Error(t, err)
}

func TestProxiedNeverForwardsTelegramFileURLs(t *testing.T) {
	t.Parallel()

	src, err := url.Parse("https://" + TelegramFileHost + "/file/bot123:secret/photos/a.jpg")
	require.NoError(t, err)

	got, err := Proxied{Template: "https://proxy.test/?", DirectHosts: []string{"i.groupme.com"}}.RequestURL(src)
	require.NoError(t, err)
	assert.Equal(t, src.String(), got)
	assert.NotContains(t, got, "proxy.test")
}

func TestNewStrategy(t *testing.T) {
	t.Parallel()

	s, err := NewStrategy("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "direct", s.Name())

	s, err = NewStrategy("proxied", "https://p/?", []string{"i.groupme.com"})
	require.NoError(t, err)
	assert.Equal(t, "proxied", s.Name())

	_, err = NewStrategy("proxied", "", nil)
	assert.Error(t, err)
	_, err = NewStrategy("carrier-pigeon", "", nil)
	assert.Error(t, err)
}

func TestFetchDirect(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, color.NRGBA{R: 10, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client(), Direct{}, 0, logger.Discard())
	asset, err := f.Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, data, asset.Data)
	assert.Equal(t, "image/png", asset.MIMEType, "sniffed type wins over the declared one")
}

func TestFetchThroughProxy(t *testing.T) {
	t.Parallel()

	data := gifBytes(t)
	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write(data)
	}))
	t.Cleanup(proxy.Close)

	f := NewFetcher(proxy.Client(), Proxied{Template: proxy.URL + "/?url={url}"}, 0, logger.Discard())
	asset, err := f.Fetch(context.Background(), "http://blocked.example/a.gif")
	require.NoError(t, err)
	assert.Equal(t, "http://blocked.example/a.gif", proxied)
	assert.Equal(t, "image/gif", asset.MIMEType)
}

func TestFetchFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/huge":
			_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
		case "/empty":
		}
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client(), nil, 1024, logger.Discard())

	for _, source := range []string{"", srv.URL + "/missing", srv.URL + "/huge", srv.URL + "/empty", "ftp://x/a.png", filepath.Join(t.TempDir(), "none.png")} {
		_, err := f.Fetch(context.Background(), source)
		assert.Error(t, err, "source %q", source)
	}
}

func TestFetchRefusesLocalSources(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "private.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, color.NRGBA{A: 255}), 0o600))

	f := NewFetcher(nil, Proxied{Template: "https://proxy.test/?"}, 0, logger.Discard())
	for _, source := range []string{path, "file://" + path, "relative/private.png"} {
		asset, err := f.Fetch(context.Background(), source)
		assert.Error(t, err, "source %q", source)
		assert.Nil(t, asset)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "avatar.jpg")
	require.NoError(t, os.WriteFile(path, jpegBytes(t), 0o600))

	asset, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", asset.MIMEType)
	assert.Equal(t, path, asset.Source)

	_, err = LoadFile(path, 16)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "none.png"), 0)
	assert.Error(t, err)
}
