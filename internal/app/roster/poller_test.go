package roster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoller_LoopRunsOnlyWhileReferenced(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	var calls atomic.Int32
	poller := NewPoller(store, func(ctx context.Context) ([]Participant, error) {
		calls.Add(1)
		return []Participant{joined("1", "Ada")}, nil
	}, 10*time.Millisecond)

	req.False(poller.Active())

	// Given two consumers
	releaseA := poller.Acquire()
	releaseB := poller.Acquire()
	req.Equal(2, poller.Refs())

	// Then the first fetch happens immediately
	req.Eventually(func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	req.Equal([]string{"Ada"}, store.Snapshot().Names())

	// When one releases twice, the other keeps the loop alive
	releaseA()
	releaseA()
	req.Equal(1, poller.Refs())
	req.True(poller.Active())

	// When the last one releases, polling stops
	releaseB()
	req.False(poller.Active())

	time.Sleep(30 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	req.Equal(stopped, calls.Load())
}

func TestPoller_RefreshRecordsError(t *testing.T) {
	store := NewStore()
	store.Replace([]Participant{joined("1", "Ada")})

	poller := NewPoller(store, func(ctx context.Context) ([]Participant, error) {
		return nil, errors.New("upstream down")
	}, time.Minute)

	err := poller.Refresh(context.Background())

	require.EqualError(t, err, "upstream down")
	snap := store.Snapshot()
	require.EqualError(t, snap.Err, "upstream down")
	require.Equal(t, []string{"Ada"}, snap.Names())
}

func TestPoller_StaleResponseDoesNotOverwrite(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	slow := make(chan struct{})
	var mu sync.Mutex
	first := true

	poller := NewPoller(store, func(ctx context.Context) ([]Participant, error) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()

		if isFirst {
			<-slow
			return []Participant{joined("1", "Stale")}, nil
		}
		return []Participant{joined("1", "Fresh")}, nil
	}, time.Minute)

	// Given a slow first fetch in flight
	done := make(chan error, 1)
	go func() { done <- poller.Refresh(context.Background()) }()
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !first
	}, time.Second, time.Millisecond)

	// When a second fetch completes before it
	req.NoError(poller.Refresh(context.Background()))
	close(slow)
	req.NoError(<-done)

	// Then the fresher roster wins
	req.Equal([]string{"Fresh"}, store.Snapshot().Names())
}

func TestPoller_StaleFailureDoesNotOverwrite(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	slow := make(chan struct{})
	var mu sync.Mutex
	first := true

	poller := NewPoller(store, func(ctx context.Context) ([]Participant, error) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()

		if isFirst {
			<-slow
			return nil, errors.New("stale failure")
		}
		return []Participant{joined("1", "Ann")}, nil
	}, time.Minute)

	// Given a slow first fetch that will fail
	done := make(chan error, 1)
	go func() { done <- poller.Refresh(context.Background()) }()
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !first
	}, time.Second, time.Millisecond)

	// When a second fetch succeeds before it
	req.NoError(poller.Refresh(context.Background()))
	close(slow)
	req.EqualError(<-done, "stale failure")

	// Then the snapshot keeps the fresh roster without an error
	snap := store.Snapshot()
	req.Equal([]string{"Ann"}, snap.Names())
	req.NoError(snap.Err)
	req.False(snap.Loading)
}

func TestPoller_Stop(t *testing.T) {
	poller := NewPoller(NewStore(), func(ctx context.Context) ([]Participant, error) {
		return nil, nil
	}, time.Millisecond)

	poller.Acquire()
	poller.Stop()

	require.False(t, poller.Active())
}
