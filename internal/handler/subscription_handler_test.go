package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"gmpro/internal/app/events"
	"gmpro/internal/pkg/errs"
)

func newWorkspaceEventsServer(t *testing.T) *httptest.Server {
	t.Helper()

	subscription := map[string]any{
		"name":                 "subscriptions/sub-1",
		"targetResource":       "//meet.googleapis.com/conferenceRecords/c1",
		"eventTypes":           []string{events.TypeParticipantJoined, events.TypeParticipantLeft},
		"notificationEndpoint": map[string]any{"pubsubTopic": "projects/p/topics/t"},
		"state":                "ACTIVE",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/subscriptions":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": true, "response": subscription})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/subscriptions":
			_ = json.NewEncoder(w).Encode(map[string]any{"subscriptions": []any{subscription}})
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/subscriptions/sub-1":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2", "done": true})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSubscriptions_Lifecycle(t *testing.T) {
	r := require.New(t)
	server := newWorkspaceEventsServer(t)
	env := newTestEnv(t, func(deps *AppDeps) {
		deps.Subscriptions = events.NewSubscriptionServiceFactory(server.Client(), option.WithEndpoint(server.URL+"/"))
	})
	token := bearer("google-token")

	// Create
	w := env.do(t, http.MethodPost, "/api/meet/subscriptions", map[string]any{
		"conferenceId": "c1",
		"pubsubTopic":  "projects/p/topics/t",
	}, token)
	r.Equal(http.StatusCreated, w.Code)
	var op events.Operation
	decodeData(t, w, &op)
	r.True(op.Done)
	r.Equal("subscriptions/sub-1", op.Subscription.Name)

	// List
	w = env.do(t, http.MethodGet, "/api/meet/subscriptions", nil, token)
	r.Equal(http.StatusOK, w.Code)
	var listed struct {
		Subscriptions []events.Subscription `json:"subscriptions"`
	}
	decodeData(t, w, &listed)
	r.Len(listed.Subscriptions, 1)
	r.Equal("ACTIVE", listed.Subscriptions[0].State)

	// Get of an unknown subscription
	w = env.do(t, http.MethodGet, "/api/meet/subscriptions?name=subscriptions/missing", nil, token)
	r.Equal(http.StatusNotFound, w.Code)
	r.Equal(errs.ErrSubscriptionNotFound, decode(t, w).Code)

	// Delete
	w = env.do(t, http.MethodDelete, "/api/meet/subscriptions?subscriptionName=subscriptions/sub-1", nil, token)
	r.Equal(http.StatusNoContent, w.Code)
}

func TestSubscriptions_RequireGoogleToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/meet/subscriptions", nil, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, errs.ErrUnauthenticated, decode(t, w).Code)
}
