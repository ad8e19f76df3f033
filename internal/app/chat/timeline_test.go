package chat

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func keys(seq []Message) []string {
	out := make([]string, 0, len(seq))
	for _, m := range seq {
		out = append(out, m.Key)
	}
	return out
}

func TestTimeline_ListNewestFirstWithinWindow(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimeline(time.Hour)

	// Given messages inside and outside the window
	tl.Load([]Message{
		{Key: "a", Timestamp: now.Add(-30 * time.Minute).UnixMilli()},
		{Key: "b", Timestamp: now.Add(-10 * time.Minute).UnixMilli()},
		{Key: "c", Timestamp: now.Add(-20 * time.Minute).UnixMilli()},
	})
	tl.Upsert(Message{Key: "old", Timestamp: now.Add(-2 * time.Hour).UnixMilli()})

	// When listing
	got := slices.Collect(tl.List(now))

	// Then only visible messages come back, newest first, and the expired one was purged
	req.Equal([]string{"b", "c", "a"}, keys(got))
	req.Equal(3, tl.Len())
}

func TestTimeline_PurgeRunsOnce(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimeline(time.Hour)

	tl.Upsert(Message{Key: "expired", Timestamp: now.Add(-time.Hour).UnixMilli()})
	tl.Upsert(Message{Key: "fresh", Timestamp: now.UnixMilli()})

	// First view purges the message sitting exactly on the cutoff
	req.Equal([]string{"fresh"}, keys(slices.Collect(tl.List(now))))
	req.Equal(1, tl.Len())

	// Later expirations are filtered, not purged
	later := now.Add(2 * time.Hour)
	req.Empty(slices.Collect(tl.List(later)))
	req.Equal(1, tl.Len())
}

func TestTimeline_LoadKeepsNewerEntries(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline(0)

	tl.Upsert(Message{Key: "k", Text: "edited", Timestamp: 10})
	tl.Load([]Message{{Key: "k", Text: "stale", Timestamp: 10}})

	got, ok := tl.Get("k")
	req.True(ok)
	req.Equal("edited", got.Text)
	req.True(tl.Loaded())
}

func TestTimeline_ListStopsEarly(t *testing.T) {
	now := time.Now()
	tl := NewTimeline(time.Hour)
	for i := range 5 {
		tl.Upsert(Message{Key: string(rune('a' + i)), Timestamp: now.UnixMilli() - int64(i)})
	}

	count := 0
	for range tl.List(now) {
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)
}
