package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/services/turn"
)

// DefaultTurnTimeout is the per-turn deadline. It restarts on every
// turn advance; a deadline that fires after the room has already moved
// on is a no-op.
const DefaultTurnTimeout = 10 * time.Second

// Gateway is the room-scoped publish/subscribe layer. It upgrades
// websocket connections, maps them to (room, player), relays events
// into the coordinator and, as a coordinator sink, broadcasts every
// accepted state snapshot to the room. Failures are unicast to the
// offending connection only.
type Gateway struct {
	coordinator *turn.Coordinator
	hubs        *HubManager
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	turnTimeout time.Duration

	timerMu sync.Mutex
	timers  map[model.RoomID]*time.Timer
}

// New creates a Gateway. Callers must register it as a coordinator sink
// so state broadcasts and turn deadlines follow accepted mutations.
func New(coordinator *turn.Coordinator, hubs *HubManager, turnTimeout time.Duration, logger *slog.Logger) *Gateway {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Gateway{
		coordinator: coordinator,
		hubs:        hubs,
		logger:      logger.With(slog.String("component", "gateway")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		turnTimeout: turnTimeout,
		timers:      make(map[model.RoomID]*time.Timer),
	}
}

// Ensure the gateway can act as a coordinator sink
var _ turn.Sink = (*Gateway)(nil)

// HandleWS upgrades an HTTP request to a websocket connection and
// starts its pumps
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(g, conn)
	go client.writePump()
	go client.readPump()
}

// RoomChanged broadcasts the accepted snapshot to the room and
// restarts the turn deadline. Invoked inside the room's serialization
// point, so broadcasts reach the hub in application order.
func (g *Gateway) RoomChanged(room *model.Room) {
	if hub := g.hubs.GetHub(room.ID); hub != nil {
		if data, err := encodeEvent(model.EventStateUpdated, room); err == nil {
			hub.Broadcast(data)
		}
	}
	g.scheduleTurnDeadline(room)
}

// RoomCompleted is part of turn.Sink; completion is already visible in
// the room status so there is nothing extra to broadcast
func (g *Gateway) RoomCompleted(*model.RoomSummary) {}

func (g *Gateway) scheduleTurnDeadline(room *model.Room) {
	g.timerMu.Lock()
	defer g.timerMu.Unlock()

	if t, ok := g.timers[room.ID]; ok {
		t.Stop()
		delete(g.timers, room.ID)
	}

	if room.Status != model.RoomStatusActive || len(room.Players) == 0 {
		return
	}

	roomID, version := room.ID, room.Version
	g.timers[room.ID] = time.AfterFunc(g.turnTimeout, func() {
		g.onTurnDeadline(roomID, version)
	})
}

func (g *Gateway) onTurnDeadline(roomID model.RoomID, version int64) {
	// A stale deadline (the room advanced or was swept) is a no-op;
	// an applied one re-arms itself through the sink
	_, _, err := g.coordinator.HandleTurnTimeout(roomID, version)
	if err != nil {
		g.logger.Warn("turn deadline failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()))
	}
}

// handleMessage dispatches one inbound envelope from a connection.
// Every failure path ends in a unicast error; nothing here can take
// down the server or another room.
func (g *Gateway) handleMessage(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	switch env.Event {
	case model.EventJoinRoom:
		g.handleJoinRoom(c, env)
	case model.EventJoinGame:
		g.handleJoinGame(c, env)
	case model.EventPlayerMove:
		g.handlePlayerMove(c, env)
	case model.EventGetState:
		g.handleGetState(c, env)
	case model.EventLeaveRoom:
		g.handleLeaveRoom(c, env)
	case model.EventStartGame:
		g.handleStartGame(c, env)
	default:
		c.sendError(model.ErrInvalidPayload)
	}
}

// handleJoinRoom subscribes the connection to a room's broadcasts and
// unicasts the current snapshot if the room exists. A missing room is
// not an error: the HTTP initialize endpoint creates it.
func (g *Gateway) handleJoinRoom(c *Client, env Envelope) {
	var p model.JoinRoomPayload
	if err := decodePayload(env, &p); err != nil || p.RoomID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}
	roomID := model.RoomID(p.RoomID)

	hub := g.hubs.GetOrCreateHub(roomID)
	hub.Register(c)
	c.associate(hub, roomID, "")

	if room, ok := g.coordinator.GetRoom(roomID); ok {
		c.sendEvent(model.EventStateUpdated, room)
	}
}

func (g *Gateway) handleJoinGame(c *Client, env Envelope) {
	var p model.JoinGamePayload
	if err := decodePayload(env, &p); err != nil {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	roomID := model.RoomID(p.RoomID)
	playerID := p.CanonicalPlayerID()
	if roomID == "" || playerID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	state, err := g.coordinator.Join(roomID, model.Player{ID: playerID, Username: p.Username})
	if err != nil {
		c.sendError(err)
		return
	}

	hub := g.hubs.GetOrCreateHub(roomID)
	hub.Register(c)
	c.associate(hub, roomID, playerID)

	idx := state.PlayerIndex(playerID)
	if data, err := encodeEvent(model.EventPlayerJoined, model.PlayerJoinedPayload{
		Player:  state.Players[idx],
		Players: state.Players,
	}); err == nil {
		hub.Broadcast(data)
	}

	// Rejoins do not bump the version, so the sink stays silent; give
	// the joining connection a snapshot either way
	c.sendEvent(model.EventStateUpdated, state)
}

func (g *Gateway) handlePlayerMove(c *Client, env Envelope) {
	var p model.PlayerMovePayload
	if err := decodePayload(env, &p); err != nil || p.RoomID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	// The accepted state broadcasts through the sink
	if _, err := g.coordinator.SubmitMove(model.RoomID(p.RoomID), model.PlayerID(p.PlayerID), p.SelectedNumber); err != nil {
		c.sendError(err)
	}
}

func (g *Gateway) handleGetState(c *Client, env Envelope) {
	var p model.GetStatePayload
	if err := decodePayload(env, &p); err != nil || p.RoomID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	room, ok := g.coordinator.GetRoom(model.RoomID(p.RoomID))
	if !ok {
		c.sendError(model.ErrRoomNotFound)
		return
	}
	c.sendEvent(model.EventStateUpdated, room)
}

func (g *Gateway) handleLeaveRoom(c *Client, env Envelope) {
	var p model.LeaveRoomPayload
	if err := decodePayload(env, &p); err != nil || p.RoomID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	roomID := model.RoomID(p.RoomID)
	playerID := model.CanonicalID(p.PlayerID)
	if playerID == "" {
		_, _, playerID = c.association()
	}
	if playerID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	if _, err := g.coordinator.Leave(roomID, playerID); err != nil {
		c.sendError(err)
		return
	}

	// The connection stays subscribed as a spectator; only the player
	// binding is dropped so disconnect cleanup does not leave twice
	c.clearPlayer()
	g.broadcastPlayerLeft(roomID, playerID)
}

func (g *Gateway) handleStartGame(c *Client, env Envelope) {
	var p model.StartGamePayload
	if err := decodePayload(env, &p); err != nil || p.RoomID == "" {
		c.sendError(model.ErrInvalidPayload)
		return
	}

	state, err := g.coordinator.StartRoom(model.RoomID(p.RoomID))
	if err != nil {
		c.sendError(err)
		return
	}

	if hub := g.hubs.GetHub(state.ID); hub != nil {
		if data, err := encodeEvent(model.EventGameStarted, model.GameStartedPayload{
			RoomID:  state.ID,
			Players: state.Players,
		}); err == nil {
			hub.Broadcast(data)
		}
	}
}

// handleDisconnect runs cleanup for a dead connection exactly once:
// unsubscribe from the hub and remove the player from the rotation
func (g *Gateway) handleDisconnect(c *Client) {
	c.disconnectOnce.Do(func() {
		hub, roomID, playerID := c.association()

		if hub != nil {
			hub.Unregister(c)
		}
		if roomID == "" || playerID == "" {
			return
		}

		if _, err := g.coordinator.Leave(roomID, playerID); err != nil {
			// The room may already have been swept
			g.logger.Info("disconnect cleanup skipped",
				slog.String("room_id", string(roomID)),
				slog.String("player_id", string(playerID)),
				slog.String("reason", err.Error()))
			return
		}
		g.broadcastPlayerLeft(roomID, playerID)
	})
}

func (g *Gateway) broadcastPlayerLeft(roomID model.RoomID, playerID model.PlayerID) {
	hub := g.hubs.GetHub(roomID)
	if hub == nil {
		return
	}
	if data, err := encodeEvent(model.EventPlayerLeft, model.PlayerLeftPayload{PlayerID: playerID}); err == nil {
		hub.Broadcast(data)
	}
}

// Shutdown stops all turn deadline timers
func (g *Gateway) Shutdown() {
	g.timerMu.Lock()
	defer g.timerMu.Unlock()
	for roomID, t := range g.timers {
		t.Stop()
		delete(g.timers, roomID)
	}
}
