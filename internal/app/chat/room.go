package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
)

const (
	broadcastChannelBuffer = 1024

	// RoomInactivityTimeout is how long a room without clients stays open.
	RoomInactivityTimeout = 5 * time.Minute

	// RecentMessagesLimit bounds the history sent in INIT_DATA.
	RecentMessagesLimit = 100

	initDataTimeout = 5 * time.Second
)

// Room is the WebSocket hub of one meeting.
type Room struct {
	MeetID     string
	MaxClients int

	// clients are keyed by member id.
	clients map[string]*Client

	broadcast  chan Envelope
	register   chan *Client
	unregister chan *Client

	channel   *Channel
	jwtSecret string

	cleanupChan chan<- RoomCleanupMsg

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	shutdownTimer *time.Timer

	// mu protects clients.
	mu sync.RWMutex

	logger zerolog.Logger
}

func NewRoom(meetID string, maxClients int, channel *Channel, jwtSecret string, cleanupChan chan<- RoomCleanupMsg) *Room {
	return &Room{
		MeetID:        meetID,
		MaxClients:    maxClients,
		clients:       make(map[string]*Client),
		broadcast:     make(chan Envelope, broadcastChannelBuffer),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		channel:       channel,
		jwtSecret:     jwtSecret,
		cleanupChan:   cleanupChan,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		shutdownTimer: time.NewTimer(RoomInactivityTimeout),
		logger:        logx.Logger().With().Str("meet_id", meetID).Logger(),
	}
}

// Stop ends the Run loop. It is safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

// Stopped reports whether the Run loop has exited.
func (r *Room) Stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Run is the room's event loop. It returns after Stop or RoomInactivityTimeout without
// clients.
func (r *Room) Run() {
	defer r.finish()

	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)

		case client := <-r.unregister:
			r.handleUnregister(client)

		case env := <-r.broadcast:
			r.fanOut(env)

		case <-r.shutdownTimer.C:
			r.logger.Info().Msgf("Room inactivity timeout (%s) reached.", RoomInactivityTimeout)
			return

		case <-r.stopChan:
			r.logger.Info().Msg("Room forced stop initiated.")
			return
		}
	}
}

func (r *Room) finish() {
	close(r.done)
	r.shutdownTimer.Stop()

	func() {
		defer func() {
			if recover() != nil {
				r.logger.Warn().Msg("Manager cleanup channel closed, skipping cleanup notification.")
			}
		}()

		select {
		case r.cleanupChan <- RoomCleanupMsg{MeetID: r.MeetID, Room: r}:
		default:
			r.logger.Warn().Msg("Manager cleanup channel full, skipping cleanup notification.")
		}
	}()

	r.mu.Lock()
	for id, client := range r.clients {
		client.closeSend()
		delete(r.clients, id)
	}
	r.mu.Unlock()
}

func (r *Room) handleRegister(client *Client) {
	r.mu.Lock()

	id := client.member.ID

	existing, replacing := r.clients[id]
	if !replacing && r.MaxClients > 0 && len(r.clients) >= r.MaxClients {
		r.mu.Unlock()
		r.logger.Warn().Str("client_id", id).Int("max_clients", r.MaxClients).Msg("Room is full. Client rejected.")
		client.SendError(errs.NewError(errs.ErrRoomIsFull))
		client.closeSend()
		return
	}

	if replacing {
		r.logger.Warn().Str("client_id", id).Msg("Member already connected. Replacing old connection.")
		existing.Kick("Session replaced by new connection. Check other tabs.")
	}

	r.clients[id] = client
	r.stopTimer()

	online := make([]Member, 0, len(r.clients))
	for _, c := range r.clients {
		online = append(online, c.member)
	}
	total := len(r.clients)
	r.mu.Unlock()

	r.logger.Info().Str("client_id", id).Int("total_users", total).Msg("Client joined room.")

	ctx, cancel := context.WithTimeout(context.Background(), initDataTimeout)
	messages, err := r.channel.Recent(ctx, r.MeetID, RecentMessagesLimit)
	cancel()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to load recent messages for INIT_DATA.")
		messages = []Message{}
	}

	if err := client.SendInitData(InitDataPayload{
		CurrentUser: client.member,
		OnlineUsers: online,
		MaxUsers:    r.MaxClients,
		Messages:    messages,
	}); err != nil {
		r.handleUnregister(client)
		return
	}

	if replacing {
		return
	}

	env, err := NewEnvelope(TypeUserJoined, r.MeetID, SystemMember, MemberEventPayload{User: client.member})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build USER_JOINED envelope.")
		return
	}
	env.exclude = id
	r.fanOut(env)
}

func (r *Room) handleUnregister(client *Client) {
	r.mu.Lock()

	id := client.member.ID
	current, ok := r.clients[id]
	if !ok || current != client {
		r.mu.Unlock()
		client.closeSend()
		r.logger.Debug().Str("client_id", id).Msg("Ignoring unregister for stale connection.")
		return
	}

	delete(r.clients, id)
	client.closeSend()
	remaining := len(r.clients)
	if remaining == 0 {
		r.stopTimer()
		r.shutdownTimer.Reset(RoomInactivityTimeout)
	}
	r.mu.Unlock()

	r.logger.Info().Str("client_id", id).Int("total_users", remaining).Msg("Client left room.")

	env, err := NewEnvelope(TypeUserLeft, r.MeetID, SystemMember, MemberEventPayload{User: client.member})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build USER_LEFT envelope.")
		return
	}
	r.fanOut(env)
}

// fanOut delivers env to every client except env.exclude. Clients whose queue is full
// are dropped.
func (r *Room) fanOut(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		r.logger.Error().Err(err).Str("envelope_id", env.ID).Msg("Error marshaling envelope for broadcast.")
		return
	}

	var slow []*Client

	r.mu.RLock()
	for id, client := range r.clients {
		if id == env.exclude {
			continue
		}
		if err := client.queue(b); err != nil {
			slow = append(slow, client)
		}
	}
	r.mu.RUnlock()

	for _, client := range slow {
		r.logger.Warn().Str("client_id", client.member.ID).Msg("Client send queue full, disconnecting.")
		r.handleUnregister(client)
	}
}

// stopTimer stops and drains the inactivity timer. Callers hold mu.
func (r *Room) stopTimer() {
	if !r.shutdownTimer.Stop() {
		select {
		case <-r.shutdownTimer.C:
		default:
		}
	}
}

// Broadcast queues env for every client of the room.
func (r *Room) Broadcast(env Envelope) {
	select {
	case r.broadcast <- env:
	case <-r.done:
	default:
		r.logger.Warn().Str("type", string(env.Type)).Msg("Broadcast channel full, dropping envelope.")
	}
}

// RegisterClient hands client to the Run loop. It reports false when the room has stopped.
func (r *Room) RegisterClient(client *Client) bool {
	select {
	case r.register <- client:
		return true
	case <-r.done:
		client.closeSend()
		return false
	}
}

// UnregisterClient hands client to the Run loop for removal.
func (r *Room) UnregisterClient(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.done:
		client.closeSend()
	}
}

// IsFull reports whether a connection for memberID would exceed MaxClients. A member
// already connected replaces its old connection and never counts as extra.
func (r *Room) IsFull(memberID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.clients[memberID]; ok {
		return false
	}
	return r.MaxClients > 0 && len(r.clients) >= r.MaxClients
}

// OnlineMembers returns the members currently connected.
func (r *Room) OnlineMembers() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c.member)
	}
	return out
}
