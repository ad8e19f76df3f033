package randx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageKey_IsValidAndTimeOrdered(t *testing.T) {
	req := require.New(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := MessageKey(base)
	req.NoError(err)
	second, err := MessageKey(base.Add(time.Millisecond))
	req.NoError(err)

	req.True(IsValidMessageKey(first))
	req.True(IsValidMessageKey(second))
	req.Less(first, second)
}

func TestMessageKey_SameMillisecondDiffers(t *testing.T) {
	now := time.Now()

	a, err := MessageKey(now)
	require.NoError(t, err)
	b, err := MessageKey(now)
	require.NoError(t, err)

	require.Equal(t, a[:8], b[:8])
	require.NotEqual(t, a, b)
}

func TestIsValidMessageKey_Rejects(t *testing.T) {
	require.False(t, IsValidMessageKey(""))
	require.False(t, IsValidMessageKey("short"))
	require.False(t, IsValidMessageKey("-NxYz0123456789abcd!"))
}
