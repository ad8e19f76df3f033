package roster

import (
	"slices"
	"sync"
	"time"
)

// Snapshot is an immutable view of the roster at one point in time. Version increases by
// one on every change, starting at 0 for the empty store. Participants is shared between
// readers and must not be modified.
type Snapshot struct {
	Participants []Participant
	Loading      bool
	Err          error
	Version      uint64
	UpdatedAt    time.Time
}

// Active returns the joined participants of the snapshot.
func (s Snapshot) Active() []Participant {
	return ActiveParticipants(s.Participants)
}

// Names returns the names of the joined participants of the snapshot.
func (s Snapshot) Names() []string {
	return ParticipantNames(s.Participants)
}

// Store is the observable roster of one meeting. The zero value is not usable; call
// NewStore.
type Store struct {
	mu          sync.Mutex
	current     Snapshot
	appliedSeq  uint64
	subscribers map[int]chan Snapshot
	nextSubID   int
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]chan Snapshot),
		now:         time.Now,
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace sets the participant list unconditionally and clears loading and error.
func (s *Store) Replace(participants []Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(participants)
}

// Apply sets the participant list fetched under sequence number seq. Responses whose
// sequence is not newer than the last applied one are dropped and Apply returns false.
func (s *Store) Apply(seq uint64, participants []Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.setLocked(participants)
	return true
}

// SetLoading marks a fetch as in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Loading == loading {
		return
	}
	next := s.current
	next.Loading = loading
	s.publishLocked(next)
}

// Fail records the failure of the fetch issued under sequence number seq. Like Apply it
// drops outcomes not newer than the last applied one and then returns false; otherwise the
// participant list is kept and later responses of older fetches are dropped.
func (s *Store) Fail(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.setErrLocked(err)
	return true
}

// SetError records a failed fetch. The participant list is kept.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setErrLocked(err)
}

// Subscribe returns a channel receiving every future snapshot and a cancel func. The
// channel holds at most one pending snapshot: a slow reader skips to the newest one.
// The channel is closed by cancel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}

	return ch, cancel
}

func (s *Store) setLocked(participants []Participant) {
	s.publishLocked(Snapshot{
		Participants: slices.Clone(participants),
		UpdatedAt:    s.now(),
	})
}

func (s *Store) setErrLocked(err error) {
	next := s.current
	next.Err = err
	next.Loading = false
	s.publishLocked(next)
}

func (s *Store) publishLocked(next Snapshot) {
	next.Version = s.current.Version + 1
	s.current = next

	for _, ch := range s.subscribers {
		// Drop the stale pending snapshot, if any, then deliver the new one.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
