package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/metrics"
)

const (
	// DefaultIdleTimeout is how long an idle session survives.
	DefaultIdleTimeout = 10 * time.Minute

	sweepDivisor = 2
)

// Manager owns the sessions of all meetings.
type Manager struct {
	source       ParticipantSource
	sender       MessageSender
	pollInterval time.Duration
	idleTimeout  time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewManager starts a manager whose sessions poll source every pollInterval and post
// through sender. Non-positive durations fall back to the defaults.
func NewManager(source ParticipantSource, sender MessageSender, pollInterval, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	m := &Manager{
		source:       source,
		sender:       sender,
		pollInterval: pollInterval,
		idleTimeout:  idleTimeout,
		now:          time.Now,
		sessions:     make(map[string]*Session),
		stop:         make(chan struct{}),
		logger:       logx.Component("SessionManager"),
	}

	m.wg.Add(1)
	go m.sweepLoop()

	return m
}

// Open returns the session of meetID, creating it when needed, and records the caller's
// credential and member id on it.
func (m *Manager) Open(meetID, credential, memberID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[meetID]
	if !ok {
		s = newSession(meetID, m.source, m.sender, m.pollInterval)
		m.sessions[meetID] = s
		metrics.ActiveSessions.Inc()
		m.logger.Info().Str("meet_id", meetID).Msg("Session opened.")
	}

	// Touched under mu so a concurrent Sweep cannot close the session being handed out.
	s.SetCredential(credential)
	s.SetActor(memberID)
	s.Touch(m.now())

	return s
}

// Lookup returns the session of meetID without creating one.
func (m *Manager) Lookup(meetID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[meetID]
	return s, ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes the sessions idle at now and returns how many were closed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.Idle(now, m.idleTimeout) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
		metrics.ActiveSessions.Dec()
		m.logger.Info().Str("meet_id", s.MeetID).Msg("Idle session closed.")
	}
	return len(idle)
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.idleTimeout / sweepDivisor)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if closed := m.Sweep(m.now()); closed > 0 {
				m.logger.Debug().Int("closed", closed).Int("remaining", m.Len()).Msg("Session sweep finished.")
			}
		}
	}
}

// Shutdown stops the sweep and closes every session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
		metrics.ActiveSessions.Dec()
	}
	m.logger.Info().Int("closed", len(sessions)).Msg("Session manager shutdown complete.")
}
