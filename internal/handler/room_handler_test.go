package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gmpro/internal/app/chat"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
)

func TestJoinRoom_IssuesToken(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// Given a join request without a member id
	w := env.do(t, http.MethodPost, "/api/chat/join", map[string]any{
		"meetId":   testMeetID,
		"nickname": "Ada",
	}, nil)

	// Then a fresh member id is issued inside a token for the meeting
	req.Equal(http.StatusOK, w.Code)
	var data struct {
		Token    string `json:"token"`
		MemberID string `json:"memberId"`
		MeetID   string `json:"meetId"`
	}
	decodeData(t, w, &data)
	req.Equal(testMeetID, data.MeetID)
	_, err := uuid.Parse(data.MemberID)
	req.NoError(err)

	payload, err := jwt.ParseToken(data.Token, testSecret)
	req.NoError(err)
	req.Equal(data.MemberID, payload.ID)
	req.Equal(testMeetID, payload.MeetID)
	req.Equal("Ada", payload.Nickname)
}

func TestJoinRoom_KeepsMemberIDWithCurrentToken(t *testing.T) {
	env := newTestEnv(t)
	memberID := uuid.NewString()

	// Given a member that already holds a room token for the meeting
	w := env.do(t, http.MethodPost, "/api/chat/join", map[string]any{
		"meetId":   testMeetID,
		"memberId": memberID,
		"nickname": "Grace",
	}, bearer(roomToken(t, memberID)))

	// Then rejoining keeps its id
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		MemberID string `json:"memberId"`
	}
	decodeData(t, w, &data)
	require.Equal(t, memberID, data.MemberID)
}

func TestJoinRoom_IgnoresUnprovenMemberID(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	join := func(body map[string]any, header map[string]string) (string, string) {
		w := env.do(t, http.MethodPost, "/api/chat/join", body, header)
		req.Equal(http.StatusOK, w.Code)
		var data struct {
			Token    string `json:"token"`
			MemberID string `json:"memberId"`
		}
		decodeData(t, w, &data)
		return data.Token, data.MemberID
	}

	// Given ada joined and posted a message
	adaToken, adaID := join(map[string]any{"meetId": testMeetID, "nickname": "Ada"}, nil)
	w := env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "mine"}, bearer(adaToken))
	req.Equal(http.StatusCreated, w.Code)
	var sent struct {
		Message chat.Message `json:"message"`
	}
	decodeData(t, w, &sent)
	req.Equal(adaID, sent.Message.UserID)

	// When someone joins with ada's public id but without ada's token
	otherToken, otherID := join(map[string]any{"meetId": testMeetID, "memberId": adaID, "nickname": "Mallory"}, nil)
	req.NotEqual(adaID, otherID)

	// Then a token for another meeting does not prove the id either
	_, viaForeign := join(map[string]any{"meetId": testMeetID, "memberId": adaID, "nickname": "Mallory"}, bearer(foreignRoomToken(t, adaID)))
	req.NotEqual(adaID, viaForeign)

	// And the issued token cannot edit ada's message
	w = env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "hijacked", "editedMessageId": sent.Message.Key}, bearer(otherToken))
	req.Equal(http.StatusForbidden, w.Code)
	req.Equal(errs.ErrNotMessageAuthor, decode(t, w).Code)
}

func foreignRoomToken(t *testing.T, memberID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(jwt.NewPayload(memberID, "xyz-abcd-efg", memberID), testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestJoinRoom_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{name: "not a meeting code", body: map[string]any{"meetId": "lobby", "nickname": "Ada"}, code: errs.ErrInvalidParams},
		{name: "missing nickname", body: map[string]any{"meetId": testMeetID}, code: errs.ErrInvalidParams},
		{name: "member id not a uuid", body: map[string]any{"meetId": testMeetID, "memberId": "42", "nickname": "Ada"}, code: errs.ErrInvalidParams},
		{name: "unknown field", body: map[string]any{"meetId": testMeetID, "nickname": "Ada", "role": "host"}, code: errs.ErrInvalidJSONFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/chat/join", tc.body, nil)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tc.code, decode(t, w).Code)
		})
	}
}

func TestMessages_RequireRoomToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/chat/messages", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, errs.ErrUnauthorized, decode(t, w).Code)

	w = env.do(t, http.MethodGet, "/api/chat/messages", nil, bearer("not-a-token"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessages_SendListAndReact(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ada := bearer(roomToken(t, "ada"))
	grace := bearer(roomToken(t, "grace"))

	// Given a message posted by ada
	w := env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "hello *team*", "format": true}, ada)
	req.Equal(http.StatusCreated, w.Code)
	var sent struct {
		Message chat.Message `json:"message"`
	}
	decodeData(t, w, &sent)
	req.Equal("ada", sent.Message.UserID)
	req.NotEmpty(sent.Message.Key)

	// When grace reacts to it
	w = env.do(t, http.MethodPost, "/api/chat/messages/"+sent.Message.Key+"/reactions", map[string]any{"emoji": "👍"}, grace)
	req.Equal(http.StatusOK, w.Code)

	// Then the listing shows the message with grace's reaction
	w = env.do(t, http.MethodGet, "/api/chat/messages?limit=10", nil, grace)
	req.Equal(http.StatusOK, w.Code)
	var listed struct {
		Messages []chat.Message `json:"messages"`
	}
	decodeData(t, w, &listed)
	req.Len(listed.Messages, 1)
	req.Equal(sent.Message.Key, listed.Messages[0].Key)
	req.Equal([]string{"grace"}, listed.Messages[0].Reactions["👍"])
}

func TestMessages_EditByAuthorOnly(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ada := bearer(roomToken(t, "ada"))

	w := env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "first"}, ada)
	req.Equal(http.StatusCreated, w.Code)
	var sent struct {
		Message chat.Message `json:"message"`
	}
	decodeData(t, w, &sent)

	// When someone else edits it
	w = env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "hijacked", "editedMessageId": sent.Message.Key}, bearer(roomToken(t, "linus")))
	req.Equal(http.StatusForbidden, w.Code)
	req.Equal(errs.ErrNotMessageAuthor, decode(t, w).Code)

	// When the author edits it
	w = env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "second", "editedMessageId": sent.Message.Key}, ada)
	req.Equal(http.StatusOK, w.Code)
	var edited struct {
		Message chat.Message `json:"message"`
	}
	decodeData(t, w, &edited)
	req.True(edited.Message.IsEdited)
	req.Equal("second", edited.Message.EditedText)
}

func TestMessages_RejectsEmptyAndBadLimit(t *testing.T) {
	env := newTestEnv(t)
	ada := bearer(roomToken(t, "ada"))

	w := env.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"text": "   "}, ada)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, errs.ErrMessageEmpty, decode(t, w).Code)

	w = env.do(t, http.MethodGet, "/api/chat/messages?limit=9999", nil, ada)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, errs.ErrInvalidParams, decode(t, w).Code)
}

func TestToggleReaction_UnknownMessage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/chat/messages/-NoSuchKey000000000/reactions", map[string]any{"emoji": "🎉"}, bearer(roomToken(t, "ada")))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, errs.ErrMessageNotFound, decode(t, w).Code)
}
