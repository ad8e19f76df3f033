/*
Package session keeps one coordinator per meeting: the live roster with its poller and the
shuffler posting into the meeting's chat.

Sessions are created on first use and closed by a periodic sweep once they have been idle,
meaning auto shuffle is off and nothing holds the poller.
*/
package session

import (
	"context"
	"sync/atomic"
	"time"

	"gmpro/internal/app/chat"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/roster"
	"gmpro/internal/app/shuffler"
	"gmpro/internal/pkg/metrics"
)

// ParticipantSource loads the full roster of a meeting with a Google credential.
type ParticipantSource interface {
	FetchAll(ctx context.Context, identifier, accessToken string) ([]roster.Participant, error)
}

// MessageSender posts chat messages.
type MessageSender interface {
	Send(ctx context.Context, meetID string, draft chat.Draft) (chat.Message, error)
}

// Session is the coordinator of one meeting.
type Session struct {
	MeetID string

	store    *roster.Store
	poller   *roster.Poller
	shuffler *shuffler.Shuffler

	credential atomic.Pointer[string]
	actor      atomic.Pointer[string]
	lastUsed   atomic.Int64
}

func newSession(meetID string, source ParticipantSource, sender MessageSender, pollInterval time.Duration) *Session {
	s := &Session{MeetID: meetID, store: roster.NewStore()}

	s.poller = roster.NewPoller(s.store, s.fetch(source), pollInterval)
	s.shuffler = shuffler.New(s.poller, s.store, s.publish(sender))
	s.Touch(time.Now())

	return s
}

func (s *Session) fetch(source ParticipantSource) roster.FetchFunc {
	return func(ctx context.Context) ([]roster.Participant, error) {
		token := s.Credential()
		if token == "" {
			return nil, meet.ErrUnauthenticated
		}

		participants, err := source.FetchAll(ctx, s.MeetID, token)
		metrics.RosterFetches.WithLabelValues(metrics.Result(err)).Inc()
		return participants, err
	}
}

func (s *Session) publish(sender MessageSender) shuffler.Publisher {
	return func(ctx context.Context, text string) error {
		_, err := sender.Send(ctx, s.MeetID, chat.Draft{Text: text, UserID: s.Actor()})
		return err
	}
}

// SetCredential replaces the Google access token used by the poller. Empty tokens are
// ignored so a request without one keeps the previous credential.
func (s *Session) SetCredential(token string) {
	if token != "" {
		s.credential.Store(&token)
	}
}

func (s *Session) Credential() string {
	if p := s.credential.Load(); p != nil {
		return *p
	}
	return ""
}

// SetActor records the member on whose behalf shuffler lists are posted.
func (s *Session) SetActor(memberID string) {
	if memberID != "" {
		s.actor.Store(&memberID)
	}
}

// Actor returns the last acting member, or the system member before anyone acted.
func (s *Session) Actor() string {
	if p := s.actor.Load(); p != nil {
		return *p
	}
	return chat.SystemMember.ID
}

// Touch marks the session used at now.
func (s *Session) Touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) Store() *roster.Store {
	return s.store
}

func (s *Session) Poller() *roster.Poller {
	return s.poller
}

func (s *Session) Shuffler() *shuffler.Shuffler {
	return s.shuffler
}

// Idle reports whether the session can be closed at now.
func (s *Session) Idle(now time.Time, timeout time.Duration) bool {
	if s.shuffler.Enabled() || s.poller.Refs() > 0 {
		return false
	}
	return now.Sub(time.Unix(0, s.lastUsed.Load())) >= timeout
}

func (s *Session) close() {
	s.shuffler.Disable()
	s.poller.Stop()
}
