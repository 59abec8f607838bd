package groupme

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/logger"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   string
}

type requestRecorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

func (r *requestRecorder) record(req *http.Request) capturedRequest {
	body, _ := io.ReadAll(req.Body)
	c := capturedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Token:  req.Header.Get("X-Access-Token"),
		Body:   string(body),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, c)
	return c
}

func (r *requestRecorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, c capturedRequest)) (*Client, *requestRecorder) {
	t.Helper()
	rec := &requestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(w, rec.record(r))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/v3"}, staticToken("tok"), logger.Discard()), rec
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func decodeBody(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func TestList(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusOK, `{"response":[
			{"bot_id":"b2","name":"zeta","group_id":"g1","group_name":"Group One"},
			{"bot_id":"b1","name":"Alpha","group_id":"g2","avatar_url":"http://x/a.png","callback_url":"http://cb"}
		],"meta":{"code":200}}`)
	})

	bots, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "b2", bots[0].ID)
	assert.Equal(t, "Group One", bots[0].GroupName)
	assert.Equal(t, "http://x/a.png", bots[1].AvatarURL)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/v3/bots", reqs[0].Path)
	assert.Equal(t, "tok", reqs[0].Token)
}

func TestCreateOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusCreated, `{"response":{"bot":{"bot_id":"new1","name":"Old","group_id":"g2"}}}`)
	})

	bot, err := client.Create(context.Background(), CreateParams{Name: "Old", GroupID: "g2"})
	require.NoError(t, err)
	assert.Equal(t, "new1", bot.ID)
	assert.Equal(t, "g2", bot.GroupID)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v3/bots", reqs[0].Path)
	payload := decodeBody(t, reqs[0].Body)["bot"].(map[string]any)
	assert.Equal(t, "Old", payload["name"])
	assert.Equal(t, "g2", payload["group_id"])
	assert.NotContains(t, payload, "avatar_url")
	assert.NotContains(t, payload, "callback_url")
}

func TestCreateSendsPresentFields(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusCreated, `{"response":{"bot":{"bot_id":"new1"}}}`)
	})

	bot, err := client.Create(context.Background(), CreateParams{
		Name: "Bot", GroupID: "g2", AvatarURL: "http://img", CallbackURL: "http://cb",
	})
	require.NoError(t, err)
	assert.Equal(t, "g2", bot.GroupID, "group falls back to the requested one")

	payload := decodeBody(t, rec.all()[0].Body)["bot"].(map[string]any)
	assert.Equal(t, "http://img", payload["avatar_url"])
	assert.Equal(t, "http://cb", payload["callback_url"])
}

func TestCreateWithoutBotID(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusCreated, `{"response":{"bot":{}}}`)
	})

	_, err := client.Create(context.Background(), CreateParams{Name: "Bot", GroupID: "g2"})
	require.Error(t, err)
}

func TestUpdateSendsOnlySuppliedFields(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusOK, `{"meta":{"code":200}}`)
	})

	err := client.Update(context.Background(), "b1", UpdateFields{Name: String("New")})
	require.NoError(t, err)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v3/bots/update", reqs[0].Path)
	payload := decodeBody(t, reqs[0].Body)["bot"].(map[string]any)
	assert.Equal(t, map[string]any{"bot_id": "b1", "name": "New"}, payload)
}

func TestUpdateSendsEmptyStringWhenSupplied(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	require.NoError(t, client.Update(context.Background(), "b1", UpdateFields{AvatarURL: String("")}))
	payload := decodeBody(t, rec.all()[0].Body)["bot"].(map[string]any)
	assert.Contains(t, payload, "avatar_url")
	assert.Equal(t, "", payload["avatar_url"])
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "not found is success", status: http.StatusNotFound},
		{name: "server error is fatal", status: http.StatusInternalServerError, wantErr: true},
		{name: "unauthorized is fatal", status: http.StatusUnauthorized, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
				writeJSON(w, tt.status, `{"meta":{"code":0}}`)
			})

			err := client.Destroy(context.Background(), "b1")
			if tt.wantErr {
				require.Error(t, err)
				var httpErr *apperrors.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.status, httpErr.Status)
			} else {
				require.NoError(t, err)
			}

			reqs := rec.all()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/v3/bots/destroy", reqs[0].Path)
			assert.Equal(t, map[string]any{"bot_id": "b1"}, decodeBody(t, reqs[0].Body))
		})
	}
}

func TestDestroyTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	deleted := map[string]bool{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, c capturedRequest) {
		var body destroyRequest
		_ = json.Unmarshal([]byte(c.Body), &body)
		mu.Lock()
		defer mu.Unlock()
		if deleted[body.BotID] {
			writeJSON(w, http.StatusNotFound, `{"meta":{"code":404,"errors":["Not Found"]}}`)
			return
		}
		deleted[body.BotID] = true
		writeJSON(w, http.StatusOK, `{}`)
	})

	require.NoError(t, client.Destroy(context.Background(), "b1"))
	require.NoError(t, client.Destroy(context.Background(), "b1"))
}

func TestHTTPErrorCarriesBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusBadRequest, `{"meta":{"errors":["name is too long"]}}`)
	})

	_, err := client.Create(context.Background(), CreateParams{Name: "x", GroupID: "g"})
	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Body, "name is too long")
	assert.Equal(t, apperrors.CodeHTTP, apperrors.Code(err))
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Options{BaseURL: url}, staticToken("tok"), logger.Discard())
	_, err := client.List(context.Background())
	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "list", netErr.Op)
}

func TestMissingToken(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	client.tokens = staticToken("")

	_, err := client.List(context.Background())
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Empty(t, rec.all())
}

func TestGroupsAndMe(t *testing.T) {
	t.Parallel()

	client, rec := newTestClient(t, func(w http.ResponseWriter, c capturedRequest) {
		switch c.Path {
		case "/v3/groups":
			writeJSON(w, http.StatusOK, `{"response":[{"id":"g1","name":"Family"}]}`)
		case "/v3/users/me":
			writeJSON(w, http.StatusOK, `{"response":{"id":"u1","name":"Ada","image_url":"http://i/u.png"}}`)
		default:
			writeJSON(w, http.StatusNotFound, `{}`)
		}
	})

	groups, err := client.Groups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Group{{ID: "g1", Name: "Family"}}, groups)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)

	reqs := rec.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "per_page=100", reqs[0].Query)
}
