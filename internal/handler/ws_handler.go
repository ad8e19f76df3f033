package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"gmpro/internal/app/chat"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/limiter"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

// HandleWebSocket upgrades a member's connection into the chat room of {meetId}. Browsers
// cannot set headers on WebSocket requests, so the room token may come in the token query.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		meetID := chi.URLParam(r, "meetId")

		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = req.BearerToken(r)
		}

		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil || payload.MeetID != meetID {
			logx.Info("WebSocket connection rejected: Invalid room token.", "meet_id", meetID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		room := deps.Chat.GetOrCreateRoom(meetID)
		if room == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}
		if room.IsFull(payload.ID) {
			logx.Info("WebSocket connection rejected: Room is full.", "meet_id", meetID)
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomIsFull))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		member := chat.Member{ID: payload.ID, Nickname: payload.Nickname}
		client := chat.NewClient(room, conn, member, payload.Expiry())

		go client.WritePump()

		if !room.RegisterClient(client) {
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket client registered", "client_id", member.ID, "meet_id", meetID)

		client.ReadPump()
	}
}
