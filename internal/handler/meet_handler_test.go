package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/api/googleapi"
	meetapi "google.golang.org/api/meet/v2"

	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/errs"
	"gmpro/mocks"
)

func withMeetAPI(api meet.API) func(*AppDeps) {
	return func(deps *AppDeps) {
		deps.Source = meet.NewSource(func(context.Context, string) (meet.API, error) {
			return api, nil
		})
	}
}

func pushBody(t *testing.T, eventType, payload string) map[string]any {
	t.Helper()
	return map[string]any{
		"message": map[string]any{
			"attributes": map[string]string{"ce-type": eventType, "ce-time": "2026-05-01T10:00:00Z"},
			"data":       base64.StdEncoding.EncodeToString([]byte(payload)),
			"messageId":  "m-1",
		},
		"subscription": "projects/p/subscriptions/s",
	}
}

func TestGetParticipants_ReturnsPage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().
		ListParticipants(gomock.Any(), "conferenceRecords/c1", int64(50), "").
		Return(&meetapi.ListParticipantsResponse{
			Participants: []*meetapi.Participant{
				{
					Name:              "conferenceRecords/c1/participants/p1",
					EarliestStartTime: "2026-05-01T10:00:00Z",
					SignedinUser:      &meetapi.SignedinUser{User: "users/1", DisplayName: "Ada"},
				},
			},
			NextPageToken: "page-2",
		}, nil)

	env := newTestEnv(t, withMeetAPI(api))

	w := env.do(t, http.MethodGet, "/api/meet/get-participants?meetingId=conferenceRecords/c1&pageSize=50", nil, bearer("google-token"))

	req.Equal(http.StatusOK, w.Code)
	var data struct {
		ConferenceRecord string               `json:"conferenceRecord"`
		Participants     []roster.Participant `json:"participants"`
		NextPageToken    string               `json:"nextPageToken"`
		TotalCount       int                  `json:"totalCount"`
	}
	decodeData(t, w, &data)
	req.Equal("conferenceRecords/c1", data.ConferenceRecord)
	req.Equal("page-2", data.NextPageToken)
	req.Equal(1, data.TotalCount)
	req.Equal("Ada", data.Participants[0].Name)
}

func TestGetParticipants_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		target string
		header map[string]string
		status int
		code   int
	}{
		{name: "no identifier", target: "/api/meet/get-participants", header: bearer("t"), status: http.StatusBadRequest, code: errs.ErrMissingIdentifier},
		{name: "no token", target: "/api/meet/get-participants?meetingCode=abc-defg-hij", status: http.StatusUnauthorized, code: errs.ErrUnauthenticated},
		{name: "page size too large", target: "/api/meet/get-participants?meetingCode=abc-defg-hij&pageSize=5000", header: bearer("t"), status: http.StatusBadRequest, code: errs.ErrInvalidParams},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tc.target, nil, tc.header)

			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.code, decode(t, w).Code)
		})
	}
}

func TestGetParticipants_MapsUpstreamErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().
		ListParticipants(gomock.Any(), "conferenceRecords/c1", meet.DefaultPageSize, "").
		Return(nil, &googleapi.Error{Code: http.StatusForbidden, Message: "Meet API disabled"})

	env := newTestEnv(t, withMeetAPI(api))

	w := env.do(t, http.MethodGet, "/api/meet/get-participants?spaceName=conferenceRecords/c1", nil, bearer("google-token"))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, errs.ErrPermissionDenied, decode(t, w).Code)
}

func TestParticipants_LiveSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().
		ListParticipants(gomock.Any(), "conferenceRecords/c1", meet.DefaultPageSize, "").
		Return(&meetapi.ListParticipantsResponse{
			Participants: []*meetapi.Participant{
				{Name: "conferenceRecords/c1/participants/p1", SignedinUser: &meetapi.SignedinUser{DisplayName: "Ada"}},
				{Name: "conferenceRecords/c1/participants/p2", SignedinUser: &meetapi.SignedinUser{DisplayName: "Grace"}},
			},
		}, nil)

	env := newTestEnv(t, withMeetAPI(api))

	w := env.do(t, http.MethodGet, "/api/meet/participants?conferenceId=conferenceRecords/c1&source=live", nil, bearer("google-token"))

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Participants []roster.Participant `json:"participants"`
	}
	decodeData(t, w, &data)
	require.Equal(t, []string{"Ada", "Grace"}, roster.ParticipantNames(data.Participants))
}

func TestParticipants_UnknownSource(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/meet/participants?conferenceId=c1&source=carrier-pigeon", nil, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_FeedsCache(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// Given a joined event pushed for conference c1
	w := env.do(t, http.MethodPost, "/api/meet/participants-webhook",
		pushBody(t, events.TypeParticipantJoined, `{"participantSession":{"name":"conferenceRecords/c1/participants/p1/participantSessions/s1"}}`), nil)
	req.Equal(http.StatusOK, w.Code)

	// When reading the cached participants by bare id and by record name
	for _, id := range []string{"c1", "conferenceRecords/c1"} {
		w = env.do(t, http.MethodGet, "/api/meet/participants?conferenceId="+id, nil, nil)
		req.Equal(http.StatusOK, w.Code)

		// Then the participant is listed as joined
		var data struct {
			Participants []roster.Participant `json:"participants"`
		}
		decodeData(t, w, &data)
		req.Len(data.Participants, 1)
		req.Equal("p1", data.Participants[0].ID)
		req.Equal(roster.StatusJoined, data.Participants[0].Status)
	}

	// Given the same participant leaving
	w = env.do(t, http.MethodPost, "/api/meet/participants-webhook",
		pushBody(t, events.TypeParticipantLeft, `{"participantSession":{"name":"conferenceRecords/c1/participants/p1/participantSessions/s1"}}`), nil)
	req.Equal(http.StatusOK, w.Code)

	cached, err := env.cache.Get(context.Background(), "conferenceRecords/c1")
	req.NoError(err)
	req.Len(cached, 1)
	req.Equal(roster.StatusLeft, cached[0].Status)
}

func TestWebhook_RejectsBadMessages(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{name: "no message", body: map[string]any{"subscription": "s"}, code: errs.ErrWebhookMessageInvalid},
		{name: "no event type", body: map[string]any{"message": map[string]any{"data": "e30="}}, code: errs.ErrWebhookMessageInvalid},
		{name: "no conference", body: pushBody(t, events.TypeParticipantJoined, `{}`), code: errs.ErrWebhookNoConference},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/meet/participants-webhook", tc.body, nil)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tc.code, decode(t, w).Code)
		})
	}
}

func TestParticipantsSSE_SendsInitialSnapshot(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	req.NoError(env.cache.Apply(context.Background(), events.Event{
		Type:             events.TypeParticipantJoined,
		ConferenceRecord: "conferenceRecords/c1",
		ParticipantID:    "p1",
	}))

	// Given a client that goes away right after connecting
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, "/api/meet/participants-sse?conferenceId=c1", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	// When the stream is served
	HandleParticipantsSSE(env.deps)(w, r)

	// Then exactly the initial message was written
	req.Equal("text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	req.True(strings.HasPrefix(body, "data: "))
	req.Equal(1, strings.Count(body, "data: "))

	var msg roster.StreamMessage
	req.NoError(json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &msg))
	req.Equal(roster.MessageInitial, msg.Type)
	req.Len(msg.Participants, 1)
	req.Equal("p1", msg.Participants[0].ID)
}

func TestParticipantsSSE_RequiresConference(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/meet/participants-sse", nil, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
