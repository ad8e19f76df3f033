package jwt

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// Payload is the claim set of a room token. A room token admits one chat member to one
// meeting's chat room and shuffler.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the chat member id; it becomes the userId of messages and reactions.
	ID string `json:"id"`

	// MeetID is the meeting code the token is scoped to.
	MeetID string `json:"meet_id"`

	// Nickname is the display name chosen at join time.
	Nickname string `json:"nickname"`
}

// NewPayload returns the unsigned claims of a member of meetID.
func NewPayload(memberID, meetID, nickname string) *Payload {
	return &Payload{ID: memberID, MeetID: meetID, Nickname: nickname}
}

// Expiry returns the expiration time stamped by GenerateToken.
func (p *Payload) Expiry() time.Time {
	return time.Unix(p.ExpiresAt, 0)
}
