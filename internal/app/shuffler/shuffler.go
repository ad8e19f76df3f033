/*
Package shuffler publishes randomized speaking orders of a meeting's participants.

ShuffleOnce and PickOne refresh the roster, then post one chat message. Auto mode keeps a
baseline order: participants who join are appended to its end and the whole list is
posted again, participants who leave are dropped from it without a post.
*/
package shuffler

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/logx"
)

// ErrEmptyRoster is returned when there is nobody to shuffle.
var ErrEmptyRoster = errors.New("shuffler: no active participants")

// Roster refreshes the participant list on demand and keeps it fresh while acquired.
type Roster interface {
	Refresh(ctx context.Context) error
	Acquire() (release func())
}

// Publisher posts text to the meeting chat.
type Publisher func(ctx context.Context, text string) error

// State is the auto mode status.
type State struct {
	Enabled  bool     `json:"enabled"`
	Baseline []string `json:"baseline"`
}

type Shuffler struct {
	roster  Roster
	store   *roster.Store
	publish Publisher
	intN    func(n int) int

	mu       sync.Mutex
	enabled  bool
	baseline []string
	gen      uint64
	stop     func()
}

// New creates a shuffler reading names from store.
func New(r Roster, store *roster.Store, publish Publisher) *Shuffler {
	return &Shuffler{
		roster:  r,
		store:   store,
		publish: publish,
		intN:    rand.IntN,
	}
}

// ShuffleOnce posts every active participant in random order. While auto mode is on the
// new order also becomes the baseline.
func (s *Shuffler) ShuffleOnce(ctx context.Context) ([]string, error) {
	names := s.freshNames(ctx)
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}

	order := s.shuffle(names)
	if err := s.publish(ctx, strings.Join(order, "\n")); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.enabled {
		s.baseline = slices.Clone(order)
	}
	s.mu.Unlock()

	return order, nil
}

// PickOne posts one uniformly chosen active participant.
func (s *Shuffler) PickOne(ctx context.Context) (string, error) {
	names := s.freshNames(ctx)
	if len(names) == 0 {
		return "", ErrEmptyRoster
	}

	name := names[s.intN(len(names))]
	if err := s.publish(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// Enable turns auto mode on. With participants present and no baseline yet, they are
// shuffled, stored as the baseline and posted; with nobody present the baseline is
// set on the first non-empty roster update. Enabling twice is a no-op.
func (s *Shuffler) Enable(ctx context.Context) error {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	names := s.freshNames(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return nil
	}

	if s.baseline == nil && len(names) > 0 {
		order := s.shuffle(names)
		if err := s.publish(ctx, strings.Join(order, "\n")); err != nil {
			return err
		}
		s.baseline = order
	}

	s.enabled = true
	s.gen++

	updates, unsubscribe := s.store.Subscribe()
	release := s.roster.Acquire()
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stop = func() {
		cancel()
		unsubscribe()
		release()
	}

	go s.watch(watchCtx, s.gen, updates)

	return nil
}

// Disable turns auto mode off and discards the baseline.
func (s *Shuffler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	s.enabled = false
	s.baseline = nil
	s.gen++
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// State returns the auto mode status and a copy of the baseline.
func (s *Shuffler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{Enabled: s.enabled, Baseline: slices.Clone(s.baseline)}
}

// Enabled reports whether auto mode is on.
func (s *Shuffler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Shuffler) watch(ctx context.Context, gen uint64, updates <-chan roster.Snapshot) {
	for snap := range updates {
		if err := s.observe(ctx, gen, snap.Names()); err != nil && ctx.Err() == nil {
			logx.Warn("Auto shuffle post failed", "error", err.Error())
		}
	}
}

// observe reconciles the baseline with names and posts it when someone joined.
func (s *Shuffler) observe(ctx context.Context, gen uint64, names []string) error {
	s.mu.Lock()
	if !s.enabled || s.gen != gen {
		s.mu.Unlock()
		return nil
	}

	var changed bool
	if s.baseline == nil {
		if len(names) == 0 {
			s.mu.Unlock()
			return nil
		}
		s.baseline = s.shuffle(names)
		changed = true
	} else {
		s.baseline, changed = reconcile(s.baseline, names)
	}

	text := strings.Join(s.baseline, "\n")
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.publish(ctx, text)
}

// reconcile drops names no longer present from baseline and appends newcomers in roster
// order. Duplicate display names are counted. joined reports whether anything was appended.
func reconcile(baseline, current []string) (next []string, joined bool) {
	present := lo.CountValues(current)
	next = make([]string, 0, len(current))
	for _, name := range baseline {
		if present[name] > 0 {
			present[name]--
			next = append(next, name)
		}
	}

	known := lo.CountValues(next)
	for _, name := range current {
		if known[name] > 0 {
			known[name]--
			continue
		}
		next = append(next, name)
		joined = true
	}

	return next, joined
}

func (s *Shuffler) freshNames(ctx context.Context) []string {
	if err := s.roster.Refresh(ctx); err != nil {
		logx.Warn("Roster refresh before shuffle failed, using last snapshot", "error", err.Error())
	}
	return s.store.Snapshot().Names()
}

// shuffle returns a Fisher-Yates permutation of names.
func (s *Shuffler) shuffle(names []string) []string {
	out := slices.Clone(names)
	for i := len(out) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
