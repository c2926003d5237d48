package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mathrush/mathrush-go/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one live websocket connection. After a successful join-game
// it is associated with a (room, player) pair used for disconnect
// cleanup; that cleanup runs exactly once however the connection dies.
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte
	logger  *slog.Logger

	connectedAt time.Time

	mu       sync.Mutex
	hub      *Hub
	roomID   model.RoomID
	playerID model.PlayerID

	disconnectOnce sync.Once
}

func newClient(g *Gateway, conn *websocket.Conn) *Client {
	return &Client{
		gateway:     g,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		logger:      g.logger.With(slog.String("remote", conn.RemoteAddr().String())),
		connectedAt: time.Now(),
	}
}

// associate binds the connection to a room subscription and, once the
// player has joined the game, to a player id
func (c *Client) associate(hub *Hub, roomID model.RoomID, playerID model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hub = hub
	c.roomID = roomID
	if playerID != "" {
		c.playerID = playerID
	}
}

// association returns the connection's current (hub, room, player)
func (c *Client) association() (*Hub, model.RoomID, model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hub, c.roomID, c.playerID
}

// clearPlayer drops the player binding after an explicit leave so the
// eventual disconnect does not remove the player a second time
func (c *Client) clearPlayer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = ""
}

// PlayerID returns the joined player id, empty before join-game
func (c *Client) PlayerID() model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Send queues a message for this connection only. Never blocks; a slow
// connection loses the message rather than stalling the caller.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	default:
		c.logger.Warn("unicast dropped - connection buffer full")
	}
}

// sendEvent marshals and queues a unicast event
func (c *Client) sendEvent(event model.EventType, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	c.Send(data)
}

// sendError unicasts a move-error. Errors never reach the broadcast
// channel.
func (c *Client) sendError(err error) {
	c.sendEvent(model.EventMoveError, model.MoveErrorPayload{Message: err.Error()})
}

// readPump reads inbound events until the connection dies, then runs
// disconnect cleanup
func (c *Client) readPump() {
	defer func() {
		c.gateway.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		c.gateway.handleMessage(c, message)
	}
}

// writePump writes queued messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
