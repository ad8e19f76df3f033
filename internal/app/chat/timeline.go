package chat

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultRetention is how long messages stay visible.
const DefaultRetention = 22 * time.Hour

// Timeline is the working set of one meeting's messages. Views only show messages younger
// than the retention window. The first time a view finds the oldest message at or past
// the window, the working set drops everything outside it; later views only filter.
type Timeline struct {
	window time.Duration

	mu       sync.Mutex
	messages map[string]Message
	loaded   bool
	purged   bool
}

func NewTimeline(window time.Duration) *Timeline {
	if window <= 0 {
		window = DefaultRetention
	}
	return &Timeline{window: window, messages: make(map[string]Message)}
}

// Upsert inserts or replaces msg.
func (t *Timeline) Upsert(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[msg.Key] = msg.Clone()
}

// Load adds messages read from a store. Messages already in the set are kept, since they
// are at least as recent as the store read. Load marks the timeline loaded.
func (t *Timeline) Load(messages []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, msg := range messages {
		if _, ok := t.messages[msg.Key]; !ok {
			t.messages[msg.Key] = msg.Clone()
		}
	}
	t.loaded = true
}

// Loaded reports whether Load has run.
func (t *Timeline) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// Len returns the size of the working set, including expired messages not yet purged.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// List returns the messages younger than the window at now, newest first.
func (t *Timeline) List(now time.Time) iter.Seq[Message] {
	cutoff := now.Add(-t.window).UnixMilli()

	t.mu.Lock()
	t.purgeLocked(cutoff)
	view := make([]Message, 0, len(t.messages))
	for _, msg := range t.messages {
		if msg.Timestamp > cutoff {
			view = append(view, msg)
		}
	}
	t.mu.Unlock()

	slices.SortFunc(view, func(a, b Message) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Key, a.Key)
	})

	return func(yield func(Message) bool) {
		for _, msg := range view {
			if !yield(msg.Clone()) {
				return
			}
		}
	}
}

// Get returns the message with key from the working set.
func (t *Timeline) Get(key string) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg, ok := t.messages[key]
	return msg.Clone(), ok
}

func (t *Timeline) purgeLocked(cutoff int64) {
	if t.purged || len(t.messages) == 0 {
		return
	}

	oldest := int64(0)
	first := true
	for _, msg := range t.messages {
		if first || msg.Timestamp < oldest {
			oldest = msg.Timestamp
			first = false
		}
	}
	if oldest > cutoff {
		return
	}

	for key, msg := range t.messages {
		if msg.Timestamp <= cutoff {
			delete(t.messages, key)
		}
	}
	t.purged = true
}
