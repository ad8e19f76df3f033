/*
Package chat implements the meeting chat: the message channel with its stores and
retention window, and the WebSocket rooms that fan changes out to connected members.

This file defines the message model shared by the stores, the channel and the wire.
*/
package chat

import (
	"maps"
	"slices"
)

const (
	// MaxContentLength bounds the text of one message, in characters.
	MaxContentLength = 5000

	// ElmoImageURL replaces a message whose whole text is the /elmo command.
	ElmoImageURL = "https://ia804501.us.archive.org/19/items/elmo_20231221/elmo.jpg"

	elmoCommand = "/elmo"
)

// Message is one chat message. Timestamps are Unix milliseconds assigned by the server.
type Message struct {
	Key           string              `json:"key"`
	Text          string              `json:"text,omitempty"`
	Image         string              `json:"image,omitempty"`
	UserID        string              `json:"userId"`
	Timestamp     int64               `json:"timestamp"`
	ReplyID       string              `json:"replyId,omitempty"`
	Reactions     map[string][]string `json:"reactions,omitempty"`
	IsEdited      bool                `json:"isEdited,omitempty"`
	EditedText    string              `json:"editedText,omitempty"`
	EditTimestamp int64               `json:"editTimestamp,omitempty"`
	IsSuperOnly   bool                `json:"isSuperOnly,omitempty"`
}

// DisplayText returns the edited text of an edited message and the original text otherwise.
func (m Message) DisplayText() string {
	if m.IsEdited {
		return m.EditedText
	}
	return m.Text
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	if m.Reactions != nil {
		reactions := make(map[string][]string, len(m.Reactions))
		for emoji, users := range m.Reactions {
			reactions[emoji] = slices.Clone(users)
		}
		m.Reactions = reactions
	}
	return m
}

// ToggleReaction adds userID to the emoji's reactors, or removes it when already present.
// An emoji left without reactors is dropped. It reports whether the user was added.
func (m *Message) ToggleReaction(emoji, userID string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}

	users := m.Reactions[emoji]
	if idx := slices.Index(users, userID); idx >= 0 {
		users = slices.Delete(slices.Clone(users), idx, idx+1)
		if len(users) == 0 {
			delete(m.Reactions, emoji)
		} else {
			m.Reactions[emoji] = users
		}
		if len(m.Reactions) == 0 {
			m.Reactions = nil
		}
		return false
	}

	m.Reactions[emoji] = append(slices.Clone(users), userID)
	return true
}

// Emojis returns the reaction emojis of m in sorted order.
func (m Message) Emojis() []string {
	return slices.Sorted(maps.Keys(m.Reactions))
}

// Draft is a message as submitted by a member. EditedMessageID turns it into an edit of
// that message; Format applies the *bold* _italic_ ~strike~ markers.
type Draft struct {
	Text            string `json:"text" validate:"max=5000"`
	Image           string `json:"image,omitempty" validate:"omitempty,max=2048"`
	ReplyID         string `json:"replyId,omitempty" validate:"omitempty,max=64"`
	IsSuperOnly     bool   `json:"isSuperOnly,omitempty"`
	EditedMessageID string `json:"editedMessageId,omitempty" validate:"omitempty,max=64"`
	Format          bool   `json:"format,omitempty"`

	// UserID is the author, taken from the room token, never from the body.
	UserID string `json:"-"`
}

// Member is a participant of a meeting's chat.
type Member struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// SystemMember is the sender of room-generated envelopes.
var SystemMember = Member{ID: "system", Nickname: "System"}
