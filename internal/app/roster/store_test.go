package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func joined(id, name string) Participant {
	return Participant{ID: id, Name: name, Status: StatusJoined, Type: TypeSignedIn, JoinedAt: time.Unix(0, 0)}
}

func left(id, name string) Participant {
	at := time.Unix(60, 0)
	return Participant{ID: id, Name: name, Status: StatusLeft, Type: TypeSignedIn, LeftAt: &at}
}

func TestDerivedViews(t *testing.T) {
	participants := []Participant{joined("1", "Ada"), left("2", "Bob"), joined("3", "Cy")}

	require.Equal(t, []Participant{participants[0], participants[2]}, ActiveParticipants(participants))
	require.Equal(t, []string{"Ada", "Cy"}, ParticipantNames(participants))
	require.Empty(t, ParticipantNames(nil))
}

func TestStore_ReplaceBumpsVersion(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	req.Equal(uint64(0), store.Snapshot().Version)

	store.SetLoading(true)
	store.Replace([]Participant{joined("1", "Ada")})

	snap := store.Snapshot()
	req.Equal(uint64(2), snap.Version)
	req.False(snap.Loading)
	req.NoError(snap.Err)
	req.Equal([]string{"Ada"}, snap.Names())
}

func TestStore_ApplyDropsStaleSequence(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	// Given a newer response applied first
	req.True(store.Apply(2, []Participant{joined("1", "Fresh")}))

	// When an older response arrives late
	applied := store.Apply(1, []Participant{joined("1", "Stale")})

	// Then it is dropped
	req.False(applied)
	req.Equal([]string{"Fresh"}, store.Snapshot().Names())
}

func TestStore_SetErrorKeepsParticipants(t *testing.T) {
	store := NewStore()
	store.Replace([]Participant{joined("1", "Ada")})

	store.SetError(errors.New("boom"))

	snap := store.Snapshot()
	require.EqualError(t, snap.Err, "boom")
	require.Len(t, snap.Participants, 1)
}

func TestStore_FailFollowsSequence(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	req.True(store.Apply(2, []Participant{joined("1", "Ada")}))

	// A failure older than the applied response is dropped
	req.False(store.Fail(1, errors.New("old")))
	req.NoError(store.Snapshot().Err)

	// A newer failure is recorded and fences off older responses
	req.True(store.Fail(3, errors.New("new")))
	req.EqualError(store.Snapshot().Err, "new")
	req.Equal([]string{"Ada"}, store.Snapshot().Names())
	req.False(store.Apply(3, []Participant{joined("2", "Grace")}))
}

func TestStore_SubscribeLatestWins(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	updates, cancel := store.Subscribe()
	defer cancel()

	// When several snapshots are published before the subscriber reads
	store.Replace([]Participant{joined("1", "Ada")})
	store.Replace([]Participant{joined("1", "Ada"), joined("2", "Bob")})
	store.Replace([]Participant{joined("3", "Cy")})

	// Then only the newest is pending
	snap := <-updates
	req.Equal([]string{"Cy"}, snap.Names())
	select {
	case extra := <-updates:
		t.Fatalf("unexpected backlog snapshot %v", extra)
	default:
	}
}

func TestStore_CancelClosesChannel(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()

	cancel()
	cancel()

	_, ok := <-updates
	require.False(t, ok)

	// Publishing after cancel must not panic.
	store.Replace(nil)
}
