package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds one inbound frame.
	maxMessageSize = 8192

	sendQueueSize = 256

	handleTimeout = 10 * time.Second

	// WsCloseCodeSessionKicked tells a client its session was replaced by a newer
	// connection of the same member.
	WsCloseCodeSessionKicked = 4001

	// TokenRefreshWindow is how long before expiry the room token is reissued.
	TokenRefreshWindow = 2 * time.Minute
)

var errSendQueueFull = errors.New("chat: client send queue full")

// Client is one member's WebSocket connection to a room.
type Client struct {
	room   *Room
	conn   *websocket.Conn
	member Member

	tokenExpiry time.Time

	send chan []byte

	// mu guards closed and kickReason; send is closed exactly once under it.
	mu         sync.Mutex
	closed     bool
	kickReason string

	logger zerolog.Logger
}

func NewClient(room *Room, wsConn *websocket.Conn, member Member, expiry time.Time) *Client {
	return &Client{
		room:        room,
		conn:        wsConn,
		member:      member,
		tokenExpiry: expiry,
		send:        make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().
			Str("client_id", member.ID).
			Str("meet_id", room.MeetID).
			Logger(),
	}
}

// Member returns the member behind the connection.
func (c *Client) Member() Member {
	return c.member
}

// ReadPump reads frames until the connection fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message")
			}
			return
		}

		c.processInbound(frame)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.room.UnregisterClient(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

func (c *Client) processInbound(frame []byte) {
	var inbound InboundFrame
	if err := json.Unmarshal(frame, &inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch inbound.Type {
	case TypeSendMessage:
		c.handleSend(ctx, inbound.Payload, inbound.TempID)

	case TypeToggleReaction:
		c.handleReaction(ctx, inbound.Payload)

	default:
		c.logger.Warn().Str("msg_type", string(inbound.Type)).Msg("Client sent unsupported message type")
	}
}

func (c *Client) handleSend(ctx context.Context, payload json.RawMessage, tempID string) {
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}
	draft.UserID = c.member.ID

	msg, err := c.room.channel.Send(ctx, c.room.MeetID, draft)
	if err != nil {
		c.SendError(AsCustomError(err))
		return
	}

	c.sendConfirmation(tempID, msg)
}

func (c *Client) handleReaction(ctx context.Context, payload json.RawMessage) {
	var reaction ReactionPayload
	if err := json.Unmarshal(payload, &reaction); err != nil || reaction.Key == "" || reaction.Emoji == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if _, err := c.room.channel.AddReaction(ctx, c.room.MeetID, reaction.Emoji, reaction.Key, c.member.ID); err != nil {
		c.SendError(AsCustomError(err))
	}
}

// WritePump drains the send queue into the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

			c.checkAndRefreshToken()
		}
	}
}

func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, c.closeFrame()); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) closeFrame() []byte {
	c.mu.Lock()
	reason := c.kickReason
	c.mu.Unlock()

	if reason == "" {
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}
	return websocket.FormatCloseMessage(WsCloseCodeSessionKicked, reason)
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// checkAndRefreshToken reissues the room token once it is within TokenRefreshWindow of
// expiring.
func (c *Client) checkAndRefreshToken() {
	if time.Now().Before(c.tokenExpiry.Add(-TokenRefreshWindow)) {
		return
	}

	current := jwt.NewPayload(c.member.ID, c.room.MeetID, c.member.Nickname)
	token, payload, err := jwt.Reissue(current, c.room.jwtSecret)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to generate new token. Aborting refresh.")
		return
	}

	if err := c.sendEnvelope(TypeTokenUpdate, SystemMember, TokenUpdatePayload{Token: token}); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send token update to client.")
		return
	}

	c.tokenExpiry = payload.Expiry()
}

func (c *Client) sendEnvelope(t EventType, sender Member, payload any) error {
	env, err := NewEnvelope(t, c.room.MeetID, sender, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("type", string(t)).Msg("Failed to build envelope.")
		return err
	}

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.queue(b)
}

// queue appends b to the send queue without blocking.
func (c *Client) queue(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- b:
		return nil
	default:
		return errSendQueueFull
	}
}

// closeSend closes the send queue, which makes WritePump send a close frame and exit.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// SendError queues an ERROR envelope built from err.
func (c *Client) SendError(err error) {
	payload := ErrorPayload{Code: errs.ErrUnknown, Message: errs.NewError(errs.ErrUnknown).Message}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload = ErrorPayload{Code: customErr.Code, Message: customErr.Message}
	}

	if err := c.sendEnvelope(TypeError, SystemMember, payload); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue error message")
	}
}

// SendInitData queues the INIT_DATA envelope.
func (c *Client) SendInitData(payload InitDataPayload) error {
	return c.sendEnvelope(TypeInitData, SystemMember, payload)
}

func (c *Client) sendConfirmation(tempID string, msg Message) {
	if tempID == "" {
		return
	}

	ack := ConfirmPayload{TempID: tempID, Key: msg.Key, Timestamp: msg.Timestamp}
	if err := c.sendEnvelope(TypeConfirm, c.member, ack); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue ACK message")
	}
}

// Kick closes the connection with WsCloseCodeSessionKicked and reason.
func (c *Client) Kick(reason string) {
	c.logger.Warn().Int("close_code", WsCloseCodeSessionKicked).Str("reason", reason).Msg("Kicking client.")

	c.mu.Lock()
	c.kickReason = reason
	c.mu.Unlock()

	c.closeSend()
}
