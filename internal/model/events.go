package model

// EventType identifies a realtime event on the wire
type EventType string

const (
	// Client -> server events
	EventJoinRoom   EventType = "join-room"
	EventJoinGame   EventType = "join-game"
	EventPlayerMove EventType = "player-move"
	EventGetState   EventType = "get-state"
	EventLeaveRoom  EventType = "leave-room"
	EventStartGame  EventType = "start-game"

	// Server -> client events
	EventStateUpdated EventType = "state-updated"
	EventPlayerJoined EventType = "player-joined"
	EventPlayerLeft   EventType = "player-left"
	EventGameStarted  EventType = "game-started"
	EventMoveError    EventType = "move-error"
)

// JoinRoomPayload subscribes a connection to a room's broadcasts
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// JoinGamePayload adds a player to a room's turn rotation. The identity
// may arrive under any of the three historical field names; use
// CanonicalIDFrom before touching core logic.
type JoinGamePayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	PlayerID string `json:"playerId"`
	MongoID  string `json:"_id"`
	AltID    string `json:"id"`
}

// CanonicalPlayerID resolves the payload's identity fields to one id
func (p JoinGamePayload) CanonicalPlayerID() PlayerID {
	return CanonicalIDFrom(p.PlayerID, p.MongoID, p.AltID)
}

// PlayerMovePayload submits an answer for the current equation
type PlayerMovePayload struct {
	RoomID         string `json:"roomId"`
	PlayerID       string `json:"playerId"`
	SelectedNumber int    `json:"selectedNumber"`
}

// GetStatePayload requests a unicast snapshot of the room
type GetStatePayload struct {
	RoomID string `json:"roomId"`
}

// LeaveRoomPayload removes a player from the room's rotation
type LeaveRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// StartGamePayload moves a waiting room to active
type StartGamePayload struct {
	RoomID string `json:"roomId"`
}

// PlayerJoinedPayload is broadcast after a successful join
type PlayerJoinedPayload struct {
	Player  Player   `json:"player"`
	Players []Player `json:"players"`
}

// PlayerLeftPayload is broadcast after a player leaves or disconnects
type PlayerLeftPayload struct {
	PlayerID PlayerID `json:"playerId"`
}

// GameStartedPayload is broadcast when a room becomes active
type GameStartedPayload struct {
	RoomID  RoomID   `json:"roomId"`
	Players []Player `json:"players"`
}

// MoveErrorPayload is unicast to the connection whose event failed.
// It never reaches the broadcast channel.
type MoveErrorPayload struct {
	Message string `json:"message"`
}
