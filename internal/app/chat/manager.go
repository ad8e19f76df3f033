package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gmpro/internal/pkg/logx"
)

const (
	// DefaultMaxClients is the connection capacity of one meeting's room.
	DefaultMaxClients = 100

	// DefaultTimelineIdle is how long the working set of a meeting without an open room
	// stays in memory after its last use.
	DefaultTimelineIdle = 30 * time.Minute
)

// RoomCleanupMsg is sent by a room whose Run loop ended.
type RoomCleanupMsg struct {
	MeetID string
	Room   *Room
}

// Manager owns the WebSocket rooms of all meetings and relays channel changes to them.
type Manager struct {
	rooms map[string]*Room

	channel    *Channel
	jwtSecret  string
	maxClients int

	// mu protects rooms.
	mu sync.RWMutex

	cleanup chan RoomCleanupMsg
	stop    chan struct{}
	wg      sync.WaitGroup

	timelineIdle time.Duration
	now          func() time.Time

	logger zerolog.Logger
}

// NewManager creates a manager for channel and registers it as the channel's notifier.
func NewManager(channel *Channel, jwtSecret string) *Manager {
	m := &Manager{
		rooms:      make(map[string]*Room),
		channel:    channel,
		jwtSecret:  jwtSecret,
		maxClients: DefaultMaxClients,
		cleanup:    make(chan RoomCleanupMsg, 10),
		stop:       make(chan struct{}),
		logger:     logx.Component("ChatManager"),

		timelineIdle: DefaultTimelineIdle,
		now:          time.Now,
	}
	channel.SetNotifier(m)

	m.wg.Add(2)
	go m.runCleanupLoop()
	go m.runEvictLoop()

	return m
}

// Channel returns the message channel the rooms write to.
func (m *Manager) Channel() *Channel {
	return m.channel
}

func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	for msg := range m.cleanup {
		m.deleteRoom(msg)
	}

	m.logger.Info().Msg("Cleanup loop stopped.")
}

func (m *Manager) runEvictLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.timelineIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.EvictIdleTimelines()
		}
	}
}

// EvictIdleTimelines drops the channel working sets of meetings that have no open room and
// were not used within the idle timeout.
func (m *Manager) EvictIdleTimelines() int {
	m.mu.RLock()
	open := make(map[string]struct{}, len(m.rooms))
	for meetID := range m.rooms {
		open[meetID] = struct{}{}
	}
	m.mu.RUnlock()

	evicted := m.channel.EvictIdle(m.now().Add(-m.timelineIdle), open)
	if evicted > 0 {
		m.logger.Debug().Int("evicted", evicted).Int("remaining", m.channel.Timelines()).Msg("Idle timelines evicted.")
	}
	return evicted
}

func (m *Manager) deleteRoom(msg RoomCleanupMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.rooms[msg.MeetID]; ok && current == msg.Room {
		delete(m.rooms, msg.MeetID)
		m.channel.Forget(msg.MeetID)
		m.logger.Info().Str("meet_id", msg.MeetID).Msg("Room removed.")
	}
}

// GetOrCreateRoom returns the running room of meetID, starting one when there is none.
func (m *Manager) GetOrCreateRoom(meetID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms == nil {
		return nil
	}

	if room, ok := m.rooms[meetID]; ok && !room.Stopped() {
		return room
	}

	room := NewRoom(meetID, m.maxClients, m.channel, m.jwtSecret, m.cleanup)
	m.rooms[meetID] = room
	go room.Run()

	m.logger.Info().Str("meet_id", meetID).Int("max_clients", m.maxClients).Msg("Room started.")
	return room
}

// GetRoom returns the running room of meetID, or nil.
func (m *Manager) GetRoom(meetID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[meetID]
	if !ok || room.Stopped() {
		return nil
	}
	return room
}

// Notify fans a stored change out to the meeting's room, if one is open.
func (m *Manager) Notify(meetID string, kind ChangeKind, msg Message) {
	room := m.GetRoom(meetID)
	if room == nil {
		return
	}

	eventType := TypeMessageAdded
	if kind == MessageUpdated {
		eventType = TypeMessageUpdated
	}

	env, err := NewEnvelope(eventType, meetID, SystemMember, MessagePayload{Message: msg})
	if err != nil {
		m.logger.Error().Err(err).Str("meet_id", meetID).Msg("Failed to build message envelope.")
		return
	}
	room.Broadcast(env)
}

// Shutdown stops every room and waits for the background loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = nil
	m.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
		<-room.done
	}

	close(m.stop)
	close(m.cleanup)
	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}
