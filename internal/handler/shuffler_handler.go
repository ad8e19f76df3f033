package handler

import (
	"net/http"
	"time"

	"gmpro/internal/app/session"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/metrics"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

type AutoShuffleInput struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ShufflerState is the shuffler view returned by every shuffler endpoint.
type ShufflerState struct {
	Enabled      bool      `json:"enabled"`
	Baseline     []string  `json:"baseline"`
	Participants []string  `json:"participants"`
	UpdatedAt    time.Time `json:"updatedAt"`
	PollerActive bool      `json:"pollerActive"`
}

// openSession returns the meeting session of the token, refreshed with the caller's Google
// credential and member id.
func openSession(deps *AppDeps, r *http.Request) *session.Session {
	payload := jwt.GetPayloadFromContext(r)
	return deps.Sessions.Open(payload.MeetID, req.GoogleToken(r), payload.ID)
}

func shufflerState(s *session.Session) ShufflerState {
	state := s.Shuffler().State()
	snap := s.Store().Snapshot()

	baseline := state.Baseline
	if baseline == nil {
		baseline = []string{}
	}

	return ShufflerState{
		Enabled:      state.Enabled,
		Baseline:     baseline,
		Participants: snap.Names(),
		UpdatedAt:    snap.UpdatedAt,
		PollerActive: s.Poller().Active(),
	}
}

// HandleShufflerState returns the auto mode state and the last known participant names.
func HandleShufflerState(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, shufflerState(openSession(deps, r)))
	}
}

// HandleShuffle posts a random order of the active participants to the meeting chat.
func HandleShuffle(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := openSession(deps, r)

		order, err := s.Shuffler().ShuffleOnce(r.Context())
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}

		metrics.Shuffles.WithLabelValues("shuffle").Inc()
		resp.RespondSuccess(w, r, map[string]any{"order": order})
	}
}

// HandlePick posts one randomly chosen active participant to the meeting chat.
func HandlePick(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := openSession(deps, r)

		name, err := s.Shuffler().PickOne(r.Context())
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}

		metrics.Shuffles.WithLabelValues("pick").Inc()
		resp.RespondSuccess(w, r, map[string]any{"name": name})
	}
}

// HandleAutoShuffle switches auto mode on or off.
func HandleAutoShuffle(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AutoShuffleInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		s := openSession(deps, r)

		if *input.Enabled {
			if err := s.Shuffler().Enable(r.Context()); err != nil {
				resp.RespondError(w, r, upstreamError(err))
				return
			}
			metrics.Shuffles.WithLabelValues("auto_on").Inc()
		} else {
			s.Shuffler().Disable()
			metrics.Shuffles.WithLabelValues("auto_off").Inc()
		}

		resp.RespondSuccess(w, r, shufflerState(s))
	}
}
