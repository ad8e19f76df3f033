package chat

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"gmpro/internal/pkg/randx"
)

// Store persists messages per meeting.
type Store interface {
	// Append assigns msg a new time-ordered key and stores it.
	Append(ctx context.Context, meetID string, msg Message) (Message, error)

	// Update runs fn on the stored message under a write lock and saves the result. An
	// error from fn aborts the update and is returned as is.
	Update(ctx context.Context, meetID, key string, fn func(*Message) error) (Message, error)

	// List returns the messages of meetID with Timestamp >= since, ordered by key.
	List(ctx context.Context, meetID string, since int64) ([]Message, error)

	Close() error
}

// MemoryStore keeps messages in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	meetings map[string]map[string]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meetings: make(map[string]map[string]Message)}
}

func (s *MemoryStore) Append(_ context.Context, meetID string, msg Message) (Message, error) {
	key, err := randx.MessageKey(time.UnixMilli(msg.Timestamp))
	if err != nil {
		return Message{}, err
	}
	msg.Key = key

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.meetings[meetID]
	if !ok {
		messages = make(map[string]Message)
		s.meetings[meetID] = messages
	}
	messages[key] = msg.Clone()

	return msg, nil
}

func (s *MemoryStore) Update(_ context.Context, meetID, key string, fn func(*Message) error) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.meetings[meetID][key]
	if !ok {
		return Message{}, ErrMessageNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return Message{}, err
	}
	s.meetings[meetID][key] = next.Clone()

	return next, nil
}

func (s *MemoryStore) List(_ context.Context, meetID string, since int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, 0, len(s.meetings[meetID]))
	for _, msg := range s.meetings[meetID] {
		if msg.Timestamp >= since {
			out = append(out, msg.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Message) int { return strings.Compare(a.Key, b.Key) })

	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
