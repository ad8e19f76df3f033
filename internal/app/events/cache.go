package events

import (
	"context"
	"slices"
	"sync"

	"gmpro/internal/app/roster"
)

// RosterCache holds the participant list of each conference as reported by push events.
type RosterCache interface {
	// Get returns the participants of conferenceRecord, empty when none were seen.
	Get(ctx context.Context, conferenceRecord string) ([]roster.Participant, error)
	// Apply folds one event into its conference's list.
	Apply(ctx context.Context, event Event) error
	Close() error
}

// Fold returns participants updated by event. Joins add a record or flip an existing one
// back to joined; leaves mark the record left, creating one when the participant joined
// before events were received. Other event types leave the list unchanged and the second
// return value false.
func Fold(participants []roster.Participant, event Event) ([]roster.Participant, bool) {
	id := event.ParticipantID
	if id == "" {
		id = "unknown"
	}

	idx := slices.IndexFunc(participants, func(p roster.Participant) bool { return p.ID == id })

	switch event.Type {
	case TypeParticipantJoined:
		if idx >= 0 {
			participants[idx].Status = roster.StatusJoined
			participants[idx].JoinedAt = event.Timestamp
			participants[idx].LeftAt = nil
			participants[idx].SessionName = event.ParticipantSession
			return participants, true
		}
		return append(participants, roster.Participant{
			ID:          id,
			JoinedAt:    event.Timestamp,
			Status:      roster.StatusJoined,
			SessionName: event.ParticipantSession,
		}), true

	case TypeParticipantLeft:
		leftAt := event.Timestamp
		if idx >= 0 {
			participants[idx].Status = roster.StatusLeft
			participants[idx].LeftAt = &leftAt
			return participants, true
		}
		return append(participants, roster.Participant{
			ID:          id,
			LeftAt:      &leftAt,
			Status:      roster.StatusLeft,
			SessionName: event.ParticipantSession,
		}), true
	}

	return participants, false
}

// MemoryCache is a process-local RosterCache.
type MemoryCache struct {
	mu          sync.RWMutex
	conferences map[string][]roster.Participant
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{conferences: make(map[string][]roster.Participant)}
}

func (c *MemoryCache) Get(_ context.Context, conferenceRecord string) ([]roster.Participant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.conferences[NormalizeConferenceRecord(conferenceRecord)]), nil
}

func (c *MemoryCache) Apply(_ context.Context, event Event) error {
	key := NormalizeConferenceRecord(event.ConferenceRecord)
	if key == "" {
		return ErrNoConference
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if next, changed := Fold(c.conferences[key], event); changed {
		c.conferences[key] = next
	}
	return nil
}

// Conferences returns the keys currently held.
func (c *MemoryCache) Conferences() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.conferences))
	for k := range c.conferences {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c *MemoryCache) Close() error {
	return nil
}
