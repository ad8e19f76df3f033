package handler

import (
	"net/http"

	"github.com/google/uuid"

	"gmpro/internal/app/meet"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

type JoinRoomInput struct {
	MeetID   string `json:"meetId" validate:"required"`
	MemberID string `json:"memberId,omitempty" validate:"omitempty,uuid"`
	Nickname string `json:"nickname" validate:"required,max=64"`
}

// provenMemberID returns the member id of a valid room token for meetID in the request's
// Authorization header, or "".
func provenMemberID(r *http.Request, secret, meetID string) string {
	tokenString := req.BearerToken(r)
	if tokenString == "" {
		return ""
	}
	payload, err := jwt.ParseToken(tokenString, secret)
	if err != nil || payload.MeetID != meetID {
		return ""
	}
	return payload.ID
}

// HandleJoinRoom issues a room token admitting the caller to a meeting's chat. Member ids
// are issued by the server: an id is only kept when the caller proves it with a current
// room token for the same meeting in Authorization, otherwise memberId is ignored.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input JoinRoomInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !meet.IsMeetingCode(input.MeetID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		memberID := uuid.NewString()
		if current := provenMemberID(r, deps.Config.JWTSecret, input.MeetID); current != "" &&
			(input.MemberID == "" || input.MemberID == current) {
			memberID = current
		} else if input.MemberID != "" {
			logx.Debug("Ignored unproven member id on join", "meet_id", input.MeetID)
		}

		if room := deps.Chat.GetRoom(input.MeetID); room != nil && room.IsFull(memberID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomIsFull))
			return
		}

		payload := jwt.NewPayload(memberID, input.MeetID, input.Nickname)

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.RoomAccessExpiration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		logx.Info("Member joined meeting chat", "meet_id", input.MeetID, "member_id", memberID)

		resp.RespondSuccess(w, r, map[string]any{
			"token":     token,
			"memberId":  memberID,
			"meetId":    input.MeetID,
			"expiresAt": payload.Expiry().UTC(),
		})
	}
}
