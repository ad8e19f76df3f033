package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gmpro/internal/app/chat"
	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/roster"
	"gmpro/internal/app/session"
	"gmpro/internal/configs"
	"gmpro/internal/pkg/auth/jwt"
)

const (
	testSecret = "handler-test-secret"
	testMeetID = "abc-defg-hij"
)

// envelope is the decoded response body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type rosterSource struct {
	mu     sync.Mutex
	names  []string
	tokens []string
}

func (s *rosterSource) FetchAll(_ context.Context, _ string, accessToken string) ([]roster.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accessToken == "" {
		return nil, meet.ErrUnauthenticated
	}
	s.tokens = append(s.tokens, accessToken)

	out := make([]roster.Participant, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, roster.Participant{ID: n, Name: n, Status: roster.StatusJoined})
	}
	return out, nil
}

type testEnv struct {
	deps    *AppDeps
	router  http.Handler
	cache   *events.MemoryCache
	channel *chat.Channel
	roster  *rosterSource
}

// newTestEnv wires in-memory backends. Options adjust the deps before the router is built.
func newTestEnv(t *testing.T, opts ...func(*AppDeps)) *testEnv {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:      "test",
		JWTSecret:        testSecret,
		SSEInterval:      time.Hour,
		PollInterval:     time.Hour,
		MessageRetention: 22 * time.Hour,
	}

	cache := events.NewMemoryCache()
	channel := chat.NewChannel(chat.NewMemoryStore(), cfg.MessageRetention)
	chatManager := chat.NewManager(channel, testSecret)
	source := &rosterSource{names: []string{"Ada", "Grace", "Linus"}}
	sessions := session.NewManager(source, channel, cfg.PollInterval, time.Hour)

	deps := &AppDeps{
		Config:   cfg,
		Chat:     chatManager,
		Sessions: sessions,
		Source: meet.NewSource(func(context.Context, string) (meet.API, error) {
			return nil, errors.New("no meet api in tests")
		}),
		Cache:         cache,
		Subscriptions: events.NewSubscriptionServiceFactory(nil),
	}
	for _, opt := range opts {
		opt(deps)
	}

	limiters := NewLimiters()
	t.Cleanup(func() {
		limiters.Stop()
		sessions.Shutdown()
		chatManager.Shutdown()
	})

	return &testEnv{
		deps:    deps,
		router:  Router(deps, limiters),
		cache:   cache,
		channel: channel,
		roster:  source,
	}
}

// do serves one request through the router. body is JSON-encoded when not nil.
func (e *testEnv) do(t *testing.T, method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, target, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func roomToken(t *testing.T, memberID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(&jwt.Payload{ID: memberID, MeetID: testMeetID, Nickname: memberID}, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, w)
	require.Zero(t, env.Code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Status      string `json:"status"`
		Attachments bool   `json:"attachments"`
		Sessions    int    `json:"sessions"`
	}
	decodeData(t, w, &data)
	require.Equal(t, "ok", data.Status)
	require.False(t, data.Attachments)
	require.Zero(t, data.Sessions)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "gmpro_")
}
