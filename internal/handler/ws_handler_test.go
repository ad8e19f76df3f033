package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"gmpro/internal/app/chat"
)

const testOrigin = "https://meet.google.com"

func dialRoom(t *testing.T, server *httptest.Server, meetID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + meetID + "?token=" + token
	conn, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{testOrigin}})
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, res, err
}

func readUntilType(t *testing.T, conn *websocket.Conn, want chat.EventType) chat.Envelope {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var env chat.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == want {
			return env
		}
	}
}

func TestWebSocket_ReceivesMessagesPostedOverHTTP(t *testing.T) {
	r := require.New(t)
	env := newTestEnv(t, func(deps *AppDeps) {
		deps.Config.AllowedOrigins = []string{testOrigin}
	})
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	// Given ada connected to the meeting's room
	conn, _, err := dialRoom(t, server, testMeetID, roomToken(t, "ada"))
	r.NoError(err)

	initEnv := readUntilType(t, conn, chat.TypeInitData)
	var initData chat.InitDataPayload
	r.NoError(json.Unmarshal(initEnv.Payload, &initData))
	r.Equal("ada", initData.CurrentUser.ID)

	// When grace posts a message over HTTP
	w := env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "hi ada"}, bearer(roomToken(t, "grace")))
	r.Equal(http.StatusCreated, w.Code)

	// Then ada receives it on the socket
	added := readUntilType(t, conn, chat.TypeMessageAdded)
	var payload chat.MessagePayload
	r.NoError(json.Unmarshal(added.Payload, &payload))
	r.Equal("hi ada", payload.Message.Text)
	r.Equal("grace", payload.Message.UserID)
}

func TestWebSocket_RejectsTokenForOtherMeeting(t *testing.T) {
	env := newTestEnv(t, func(deps *AppDeps) {
		deps.Config.AllowedOrigins = []string{testOrigin}
	})
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	_, res, err := dialRoom(t, server, "xyz-abcd-efg", roomToken(t, "ada"))

	require.Error(t, err)
	require.NotNil(t, res)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
