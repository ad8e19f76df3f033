/*
Package handler provides the HTTP handlers of the GM Pro server.

This file holds the Meet participant endpoints: the paged proxy to the Meet API, the
cache/live participant read, the participant event stream and the Pub/Sub push webhook.
*/
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/metrics"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

const (
	sourceCache = "cache"
	sourceLive  = "live"

	maxPageSize = 1000
)

// HandleGetParticipants returns one page of participants of the conference identified by
// spaceName, meetingCode or meetingId (first present wins).
func HandleGetParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		identifier := firstNonEmpty(query.Get("spaceName"), query.Get("meetingCode"), query.Get("meetingId"))
		if identifier == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingIdentifier))
			return
		}

		token := req.BearerToken(r)
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		var pageSize int64
		if raw := query.Get("pageSize"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 || n > maxPageSize {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			pageSize = n
		}

		page, err := deps.Source.FetchParticipants(r.Context(), identifier, token, meet.ListOptions{
			PageSize:  pageSize,
			PageToken: query.Get("pageToken"),
		})
		metrics.RosterFetches.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			logx.Debug("Participant lookup failed", "identifier", identifier, "error", err.Error())
			resp.RespondError(w, r, upstreamError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"conferenceRecord": page.ConferenceRecord,
			"participants":     page.Participants,
			"nextPageToken":    page.NextPageToken,
			"totalCount":       len(page.Participants),
		})
	}
}

// HandleParticipants returns the participants of conferenceId, from the webhook-fed cache
// (source=cache, the default) or straight from the Meet API (source=live).
func HandleParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		conferenceID := strings.TrimSpace(query.Get("conferenceId"))
		if conferenceID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var (
			participants []roster.Participant
			err          error
		)

		switch query.Get("source") {
		case "", sourceCache:
			participants, err = deps.Cache.Get(r.Context(), events.NormalizeConferenceRecord(conferenceID))
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
				return
			}

		case sourceLive:
			token := req.BearerToken(r)
			if token == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
				return
			}
			participants, err = deps.Source.FetchAll(r.Context(), conferenceID, token)
			metrics.RosterFetches.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				resp.RespondError(w, r, upstreamError(err))
				return
			}

		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if participants == nil {
			participants = []roster.Participant{}
		}
		resp.RespondSuccess(w, r, map[string]any{"participants": participants})
	}
}

// HandleParticipantsSSE streams the cached participants of conferenceId: one initial
// message, then an update every SSEInterval until the client goes away.
func HandleParticipantsSSE(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conferenceID := strings.TrimSpace(r.URL.Query().Get("conferenceId"))
		if conferenceID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, errors.New("response writer cannot flush")))
			return
		}

		record := events.NormalizeConferenceRecord(conferenceID)
		ctx := r.Context()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(kind string) bool {
			participants, err := deps.Cache.Get(ctx, record)
			if err != nil {
				logx.Warn("Participant stream cache read failed", "conference_record", record, "error", err.Error())
				return ctx.Err() == nil
			}
			if participants == nil {
				participants = []roster.Participant{}
			}

			data, err := json.Marshal(roster.StreamMessage{Type: kind, Participants: participants})
			if err != nil {
				logx.Error(err, "Failed to encode participant stream message")
				return false
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !send(roster.MessageInitial) {
			return
		}

		ticker := time.NewTicker(deps.Config.SSEInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logx.Debug("Participant stream closed by client", "conference_record", record)
				return
			case <-ticker.C:
				if !send(roster.MessageUpdate) {
					return
				}
			}
		}
	}
}

// HandleParticipantsWebhook applies a Pub/Sub push notification to the roster cache.
func HandleParticipantsWebhook(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope events.PushEnvelope
		if customErr := req.DecodeJSON(w, r, &envelope); customErr != nil {
			metrics.WebhookEvents.WithLabelValues("unknown", "invalid").Inc()
			resp.RespondError(w, r, customErr)
			return
		}

		event, err := events.ParsePushMessage(envelope, time.Now())
		if err != nil {
			logx.Warn("Rejected push message", "error", err.Error())
			metrics.WebhookEvents.WithLabelValues("unknown", "invalid").Inc()
			resp.RespondError(w, r, errs.NewError(errs.ErrWebhookMessageInvalid))
			return
		}

		if event.ConferenceRecord == "" {
			metrics.WebhookEvents.WithLabelValues(event.Type, "invalid").Inc()
			resp.RespondError(w, r, errs.NewError(errs.ErrWebhookNoConference))
			return
		}

		if err := deps.Cache.Apply(r.Context(), *event); err != nil {
			metrics.WebhookEvents.WithLabelValues(event.Type, "error").Inc()
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		metrics.WebhookEvents.WithLabelValues(event.Type, "applied").Inc()
		logx.Info("Applied meet event",
			"event_type", event.Type,
			"conference_record", event.ConferenceRecord,
			"participant_id", event.ParticipantID,
		)

		resp.RespondSuccess(w, r, map[string]any{"event": event})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
