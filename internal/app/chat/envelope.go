package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names the kind of a WebSocket envelope.
type EventType string

const (
	// Server to client.
	TypeInitData       EventType = "INIT_DATA"
	TypeConfirm        EventType = "CONFIRM"
	TypeMessageAdded   EventType = "MESSAGE_ADDED"
	TypeMessageUpdated EventType = "MESSAGE_UPDATED"
	TypeUserJoined     EventType = "USER_JOINED"
	TypeUserLeft       EventType = "USER_LEFT"
	TypeTokenUpdate    EventType = "TOKEN_UPDATE"
	TypeError          EventType = "ERROR"

	// Client to server.
	TypeSendMessage    EventType = "SEND_MESSAGE"
	TypeToggleReaction EventType = "TOGGLE_REACTION"
)

// Envelope is the frame exchanged over a room connection.
type Envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	MeetID    string          `json:"meetId"`
	Sender    Member          `json:"sender"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`

	// exclude is a member id the room skips when broadcasting.
	exclude string
}

// NewEnvelope marshals payload into a new envelope stamped with the current time.
func NewEnvelope(t EventType, meetID string, sender Member, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		raw = b
	}

	return Envelope{
		ID:        uuid.NewString(),
		Type:      t,
		MeetID:    meetID,
		Sender:    sender,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// InboundFrame is what clients send. TempID is echoed back in the CONFIRM of a message.
type InboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

type InitDataPayload struct {
	CurrentUser Member    `json:"currentUser"`
	OnlineUsers []Member  `json:"onlineUsers"`
	MaxUsers    int       `json:"maxUsers"`
	Messages    []Message `json:"messages"`
}

type MemberEventPayload struct {
	User Member `json:"user"`
}

type MessagePayload struct {
	Message Message `json:"message"`
}

type ReactionPayload struct {
	Key   string `json:"key"`
	Emoji string `json:"emoji"`
}

type ConfirmPayload struct {
	TempID    string `json:"tempId"`
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

type TokenUpdatePayload struct {
	Token string `json:"token"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
