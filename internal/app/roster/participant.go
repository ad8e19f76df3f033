/*
Package roster holds the live participant list of a meeting.

A Store keeps the latest Snapshot and fans it out to subscribers. It is fed either by a
Poller, which refetches the roster on an interval while at least one consumer holds a
reference, or by a Stream, which applies the messages of a server-sent event stream.
*/
package roster

import (
	"time"

	"github.com/samber/lo"
)

// Status is the presence state of a participant.
type Status string

const (
	StatusJoined Status = "joined"
	StatusLeft   Status = "left"
)

// Type is the kind of Meet participant.
type Type string

const (
	TypeSignedIn  Type = "signed_in"
	TypeAnonymous Type = "anonymous"
	TypePhone     Type = "phone"
)

// Participant is one attendee of a conference.
type Participant struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email,omitempty"`
	JoinedAt time.Time  `json:"joinedAt"`
	LeftAt   *time.Time `json:"leftAt,omitempty"`
	Status   Status     `json:"status"`
	Type     Type       `json:"type"`

	// SessionName is the participant session resource, set for webhook-sourced records.
	SessionName string `json:"participantSessionName,omitempty"`
}

// Active reports whether the participant is still in the meeting.
func (p Participant) Active() bool {
	return p.Status == StatusJoined
}

// ActiveParticipants returns the participants whose status is joined, in order.
func ActiveParticipants(participants []Participant) []Participant {
	return lo.Filter(participants, func(p Participant, _ int) bool {
		return p.Active()
	})
}

// ParticipantNames returns the names of the active participants, in order.
func ParticipantNames(participants []Participant) []string {
	return lo.FilterMap(participants, func(p Participant, _ int) (string, bool) {
		return p.Name, p.Active()
	})
}
