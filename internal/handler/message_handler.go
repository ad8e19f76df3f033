package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gmpro/internal/app/chat"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
)

type ReactionInput struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

// HandleListMessages returns up to limit visible messages of the caller's meeting, newest
// first.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		limit := defaultMessageLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxMessageLimit {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = n
		}

		messages, err := deps.Chat.Channel().Recent(r.Context(), payload.MeetID, limit)
		if err != nil {
			resp.RespondError(w, r, chat.AsCustomError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleSendMessage posts or edits a message as the token's member.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		var draft chat.Draft
		if customErr := req.BindJSON(w, r, &draft); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		draft.UserID = payload.ID

		msg, err := deps.Chat.Channel().Send(r.Context(), payload.MeetID, draft)
		if err != nil {
			resp.RespondError(w, r, chat.AsCustomError(err))
			return
		}

		status := http.StatusCreated
		if draft.EditedMessageID != "" {
			status = http.StatusOK
		}
		resp.RespondStatus(w, r, status, map[string]any{"message": msg})
	}
}

// HandleToggleReaction toggles the member's reaction on the message {key}.
func HandleToggleReaction(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		key := chi.URLParam(r, "key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input ReactionInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		msg, err := deps.Chat.Channel().AddReaction(r.Context(), payload.MeetID, input.Emoji, key, payload.ID)
		if err != nil {
			resp.RespondError(w, r, chat.AsCustomError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"message": msg})
	}
}
