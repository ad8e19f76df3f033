/*
Package events handles Google Workspace Events for Meet conferences.

Participant join and leave notifications arrive as Pub/Sub push requests carrying a
CloudEvent (push payload unwrapping disabled): the event type is in the ce-type attribute
and the resource payload is the base64 data. ParsePushMessage turns such a message into
an Event, a RosterCache folds events into per-conference participant lists, and
SubscriptionService manages the subscriptions that produce them.
*/
package events

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Meet event types.
const (
	TypeConferenceStarted   = "google.workspace.meet.conference.v2.started"
	TypeConferenceEnded     = "google.workspace.meet.conference.v2.ended"
	TypeParticipantJoined   = "google.workspace.meet.participant.v2.joined"
	TypeParticipantLeft     = "google.workspace.meet.participant.v2.left"
	TypeRecordingGenerated  = "google.workspace.meet.recording.v2.fileGenerated"
	TypeTranscriptGenerated = "google.workspace.meet.transcript.v2.fileGenerated"
)

const conferenceRecordPrefix = "conferenceRecords/"

var (
	ErrNoMessage    = errors.New("events: push request has no message")
	ErrNoEventType  = errors.New("events: message has no ce-type attribute")
	ErrBadPayload   = errors.New("events: message data is not a JSON payload")
	ErrNoConference = errors.New("events: event has no conference record")
)

// PushEnvelope is the body of a Pub/Sub push request.
type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

// PushMessage is the Pub/Sub message inside a PushEnvelope.
type PushMessage struct {
	Attributes  map[string]string `json:"attributes"`
	Data        json.RawMessage   `json:"data"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime"`
}

// Event is a parsed Meet event. ConferenceRecord is always of the form
// conferenceRecords/{id}.
type Event struct {
	Type               string    `json:"eventType"`
	ConferenceRecord   string    `json:"conferenceRecord"`
	ParticipantID      string    `json:"participantId,omitempty"`
	ParticipantSession string    `json:"participantSession,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

type eventPayload struct {
	ParticipantSession *struct {
		Name string `json:"name"`
	} `json:"participantSession"`
	ConferenceRecord *struct {
		Name string `json:"name"`
	} `json:"conferenceRecord"`
	EventTimestamp string `json:"eventTimestamp"`
}

// ParsePushMessage extracts the Event of a push envelope. now supplies the timestamp
// when neither the ce-time attribute nor the payload carries one.
func ParsePushMessage(envelope PushEnvelope, now time.Time) (*Event, error) {
	msg := envelope.Message
	if msg == nil {
		return nil, ErrNoMessage
	}

	eventType := msg.Attributes["ce-type"]
	if eventType == "" {
		return nil, ErrNoEventType
	}

	payload, err := decodeData(msg.Data)
	if err != nil {
		return nil, err
	}

	event := &Event{Type: eventType}

	switch {
	case payload.ParticipantSession != nil && payload.ParticipantSession.Name != "":
		event.ParticipantSession = payload.ParticipantSession.Name
		// conferenceRecords/C/participants/P/participantSessions/S
		parts := strings.Split(event.ParticipantSession, "/")
		if len(parts) >= 2 && parts[0] == "conferenceRecords" {
			event.ConferenceRecord = conferenceRecordPrefix + parts[1]
		}
		if len(parts) >= 4 {
			event.ParticipantID = parts[3]
		}
	case payload.ConferenceRecord != nil && payload.ConferenceRecord.Name != "":
		event.ConferenceRecord = NormalizeConferenceRecord(payload.ConferenceRecord.Name)
	}

	event.Timestamp = now
	if t, ok := parseTime(msg.Attributes["ce-time"]); ok {
		event.Timestamp = t
	} else if t, ok := parseTime(payload.EventTimestamp); ok {
		event.Timestamp = t
	}

	return event, nil
}

// NormalizeConferenceRecord returns the conferenceRecords/{id} form of a conference
// record name, full resource name (//meet.googleapis.com/conferenceRecords/{id}) or bare id.
func NormalizeConferenceRecord(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.Index(value, conferenceRecordPrefix); i >= 0 {
		value = value[i+len(conferenceRecordPrefix):]
	}
	if i := strings.Index(value, "/"); i >= 0 {
		value = value[:i]
	}
	if value == "" {
		return ""
	}
	return conferenceRecordPrefix + value
}

// decodeData accepts base64 text (the push format), a raw JSON string or an inline object.
func decodeData(raw json.RawMessage) (*eventPayload, error) {
	var payload eventPayload
	if len(raw) == 0 {
		return nil, ErrBadPayload
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		// Inline JSON object.
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return &payload, nil
	}

	if decoded, err := base64.StdEncoding.DecodeString(text); err == nil {
		if err := json.Unmarshal(decoded, &payload); err == nil {
			return &payload, nil
		}
	}

	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return &payload, nil
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
