package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gmpro/internal/pkg/randx"
)

func TestMemoryStore_AppendListUpdate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	// Given three messages appended in time order
	var appended []Message
	for i := range 3 {
		msg, err := store.Append(ctx, "m", Message{Text: "msg", UserID: "u1", Timestamp: base.Add(time.Duration(i) * time.Second).UnixMilli()})
		req.NoError(err)
		req.True(randx.IsValidMessageKey(msg.Key))
		appended = append(appended, msg)
	}

	// When listing from the second timestamp
	got, err := store.List(ctx, "m", appended[1].Timestamp)

	// Then the later two come back in key order
	req.NoError(err)
	req.Equal([]string{appended[1].Key, appended[2].Key}, keys(got))

	// And other meetings are isolated
	other, err := store.List(ctx, "other", 0)
	req.NoError(err)
	req.Empty(other)

	// When an update fails, nothing changes
	_, err = store.Update(ctx, "m", appended[0].Key, func(m *Message) error {
		m.Text = "changed"
		return ErrNotAuthor
	})
	req.ErrorIs(err, ErrNotAuthor)

	all, err := store.List(ctx, "m", 0)
	req.NoError(err)
	req.Equal("msg", all[0].Text)
}

func TestMemoryStore_ReturnedMessagesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	msg, err := store.Append(ctx, "m", Message{Text: "hi", Timestamp: 1})
	require.NoError(t, err)

	listed, err := store.List(ctx, "m", 0)
	require.NoError(t, err)
	listed[0].ToggleReaction("x", "u1")

	again, err := store.List(ctx, "m", 0)
	require.NoError(t, err)
	require.Empty(t, again[0].Reactions)
	require.Equal(t, msg.Key, again[0].Key)
}
