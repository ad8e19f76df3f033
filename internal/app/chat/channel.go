package chat

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gmpro/internal/app/textstyle"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/metrics"
)

// ChangeKind tells whether a notification is for a new or a modified message.
type ChangeKind int

const (
	MessageAdded ChangeKind = iota
	MessageUpdated
)

func (k ChangeKind) String() string {
	if k == MessageUpdated {
		return "updated"
	}
	return "added"
}

// Notifier receives every stored change.
type Notifier interface {
	Notify(meetID string, kind ChangeKind, msg Message)
}

// Channel is the message channel of all meetings: it validates drafts, writes through the
// Store and keeps one retention-windowed Timeline per meeting.
type Channel struct {
	store  Store
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	timelines map[string]*Timeline
	lastUsed  map[string]time.Time
	notifier  Notifier
}

// NewChannel creates a channel over store. A non-positive window means DefaultRetention.
func NewChannel(store Store, window time.Duration) *Channel {
	if window <= 0 {
		window = DefaultRetention
	}
	return &Channel{
		store:     store,
		window:    window,
		now:       time.Now,
		timelines: make(map[string]*Timeline),
		lastUsed:  make(map[string]time.Time),
	}
}

// SetNotifier installs the receiver of change notifications.
func (c *Channel) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// Send appends a new message, or edits draft.EditedMessageID when set. Only the author of
// a message may edit it.
func (c *Channel) Send(ctx context.Context, meetID string, draft Draft) (Message, error) {
	text := strings.TrimSpace(draft.Text)
	image := strings.TrimSpace(draft.Image)

	if strings.EqualFold(text, elmoCommand) {
		text, image = "", ElmoImageURL
	}
	if draft.Format {
		text = textstyle.TransformMarked(text)
	}

	if text == "" && image == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxContentLength {
		return Message{}, ErrTooLong
	}
	if !validImage(meetID, image) {
		return Message{}, ErrInvalidImage
	}

	tl, err := c.timeline(ctx, meetID)
	if err != nil {
		return Message{}, err
	}

	now := c.now().UnixMilli()

	if draft.EditedMessageID != "" {
		msg, err := c.store.Update(ctx, meetID, draft.EditedMessageID, func(m *Message) error {
			if m.UserID != draft.UserID {
				return ErrNotAuthor
			}
			m.Image = image
			m.ReplyID = draft.ReplyID
			m.EditedText = text
			m.EditTimestamp = now
			m.IsEdited = true
			return nil
		})
		if err != nil {
			return Message{}, err
		}

		tl.Upsert(msg)
		c.notify(meetID, MessageUpdated, msg)
		return msg, nil
	}

	msg, err := c.store.Append(ctx, meetID, Message{
		Text:        text,
		Image:       image,
		UserID:      draft.UserID,
		Timestamp:   now,
		ReplyID:     draft.ReplyID,
		IsSuperOnly: draft.IsSuperOnly,
	})
	if err != nil {
		return Message{}, err
	}

	tl.Upsert(msg)
	c.notify(meetID, MessageAdded, msg)
	return msg, nil
}

// AddReaction toggles userID in the reactors of emoji on the message with key.
func (c *Channel) AddReaction(ctx context.Context, meetID, emoji, key, userID string) (Message, error) {
	tl, err := c.timeline(ctx, meetID)
	if err != nil {
		return Message{}, err
	}

	msg, err := c.store.Update(ctx, meetID, key, func(m *Message) error {
		m.ToggleReaction(emoji, userID)
		return nil
	})
	if err != nil {
		return Message{}, err
	}

	tl.Upsert(msg)
	c.notify(meetID, MessageUpdated, msg)
	return msg, nil
}

// List returns the visible messages of meetID, newest first.
func (c *Channel) List(ctx context.Context, meetID string) (iter.Seq[Message], error) {
	tl, err := c.timeline(ctx, meetID)
	if err != nil {
		return nil, err
	}
	return tl.List(c.now()), nil
}

// Recent returns up to limit visible messages of meetID, newest first.
func (c *Channel) Recent(ctx context.Context, meetID string, limit int) ([]Message, error) {
	seq, err := c.List(ctx, meetID)
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, limit)
	for msg := range seq {
		if len(out) >= limit {
			break
		}
		out = append(out, msg)
	}
	return out, nil
}

// Forget drops the working set of meetID; the next access reloads it from the store.
func (c *Channel) Forget(meetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timelines, meetID)
	delete(c.lastUsed, meetID)
}

// EvictIdle drops the working sets not used since before cutoff, except those of the
// meetings in keep, and returns how many were dropped.
func (c *Channel) EvictIdle(cutoff time.Time, keep map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for meetID, used := range c.lastUsed {
		if _, ok := keep[meetID]; ok || !used.Before(cutoff) {
			continue
		}
		delete(c.timelines, meetID)
		delete(c.lastUsed, meetID)
		evicted++
	}
	return evicted
}

// Timelines returns the number of meetings with a working set in memory.
func (c *Channel) Timelines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timelines)
}

func (c *Channel) timeline(ctx context.Context, meetID string) (*Timeline, error) {
	c.mu.Lock()
	tl, ok := c.timelines[meetID]
	if !ok {
		tl = NewTimeline(c.window)
		c.timelines[meetID] = tl
	}
	c.lastUsed[meetID] = c.now()
	c.mu.Unlock()

	if tl.Loaded() {
		return tl, nil
	}

	since := c.now().Add(-c.window).UnixMilli()
	messages, err := c.store.List(ctx, meetID, since)
	if err != nil {
		return nil, err
	}
	tl.Load(messages)

	logx.Debug("Loaded chat timeline", "meet_id", meetID, "messages", len(messages))
	return tl, nil
}

func (c *Channel) notify(meetID string, kind ChangeKind, msg Message) {
	metrics.ChatMessages.WithLabelValues(kind.String()).Inc()

	c.mu.Lock()
	n := c.notifier
	c.mu.Unlock()

	if n != nil {
		n.Notify(meetID, kind, msg)
	}
}

// validImage accepts an empty image, an http(s) URL or an attachment key of meetID.
func validImage(meetID, image string) bool {
	switch {
	case image == "":
		return true
	case strings.HasPrefix(image, "https://"), strings.HasPrefix(image, "http://"):
		return true
	default:
		return IsAttachmentKey(meetID, image)
	}
}
