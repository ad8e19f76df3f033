package roster

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gmpro/internal/pkg/logx"
)

// DefaultPollInterval is the refresh interval of a Poller.
const DefaultPollInterval = 5 * time.Second

// FetchFunc loads the full participant list.
type FetchFunc func(ctx context.Context) ([]Participant, error)

// Poller refreshes a Store on a fixed interval while it is referenced. All consumers of a
// store share a single loop: the first Acquire starts it with an immediate fetch and the
// last release stops it.
type Poller struct {
	store    *Store
	fetch    FetchFunc
	interval time.Duration

	seq atomic.Uint64

	mu     sync.Mutex
	refs   int
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller feeding store. A non-positive interval means
// DefaultPollInterval.
func NewPoller(store *Store, fetch FetchFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		store:    store,
		fetch:    fetch,
		interval: interval,
	}
}

// Acquire takes a reference on the polling loop and returns its release func. Release is
// idempotent.
func (p *Poller) Acquire() (release func()) {
	p.mu.Lock()
	p.refs++
	if p.refs == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		p.done = make(chan struct{})
		go p.loop(ctx, p.done)
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(p.release)
	}
}

// Refs returns the number of outstanding references.
func (p *Poller) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

// Active reports whether the polling loop is running.
func (p *Poller) Active() bool {
	return p.Refs() > 0
}

// Refresh performs one fetch and waits for it to be applied.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.fetchOnce(ctx)
}

// Stop cancels the loop regardless of outstanding references and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.refs = 0
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Poller) release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 && p.cancel != nil {
		p.cancel()
		p.cancel, p.done = nil, nil
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.fetchOnce(ctx); err != nil && ctx.Err() == nil {
			logx.Warn("Roster poll failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) fetchOnce(ctx context.Context) error {
	seq := p.seq.Add(1)

	p.store.SetLoading(true)
	participants, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			p.store.SetLoading(false)
			return err
		}
		if !p.store.Fail(seq, err) {
			logx.Debug("Dropped stale roster failure", "seq", seq, "error", err.Error())
		}
		return err
	}

	if !p.store.Apply(seq, participants) {
		logx.Debug("Dropped stale roster response", "seq", seq)
	}
	return nil
}
