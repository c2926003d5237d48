package model

import "time"

// RoomID uniquely identifies a game room
type RoomID string

// RoomStatus represents the lifecycle phase of a room
type RoomStatus string

const (
	RoomStatusWaiting   RoomStatus = "waiting"   // Created, game not yet started
	RoomStatusActive    RoomStatus = "active"    // Turns in progress
	RoomStatusCompleted RoomStatus = "completed" // Ended; no transitions out
)

// GameStats accumulates per-room move statistics
type GameStats struct {
	TotalMoves     int `json:"totalMoves"`
	CorrectAnswers int `json:"correctAnswers"`
	BestStreak     int `json:"bestStreak"`
}

// Room is the authoritative state of one game room. The server owns it
// exclusively; clients only ever hold read-only snapshots annotated with
// the Version they last accepted.
type Room struct {
	ID          RoomID     `json:"roomId"`
	Difficulty  string     `json:"difficulty,omitempty"`
	Equation    Equation   `json:"equation"`
	Players     []Player   `json:"players"` // Order defines the turn rotation
	CurrentTurn int        `json:"currentTurn"`
	Stats       GameStats  `json:"gameStats"`
	Status      RoomStatus `json:"status"`

	// Version strictly increases by one with every accepted mutation.
	// Clients use it to discard stale or re-ordered snapshots.
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	// LastMoveCorrect reports the outcome of the most recent resolved
	// move, nil before any move has been resolved.
	LastMoveCorrect *bool `json:"lastMoveCorrect,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// PlayerIndex returns the rotation index of the given canonical id, or -1
func (r *Room) PlayerIndex(id PlayerID) int {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty room
func (r *Room) CurrentPlayer() *Player {
	if len(r.Players) == 0 || r.CurrentTurn < 0 || r.CurrentTurn >= len(r.Players) {
		return nil
	}
	return &r.Players[r.CurrentTurn]
}

// Clone returns a deep copy safe to hand outside the room's serialization point
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = make([]Player, len(r.Players))
	copy(clone.Players, r.Players)
	if r.LastMoveCorrect != nil {
		v := *r.LastMoveCorrect
		clone.LastMoveCorrect = &v
	}
	return &clone
}

// RoomSummary is a lightweight record of a completed room, persisted to
// the archive when the room ends
type RoomSummary struct {
	RoomID      RoomID             `json:"roomId"`
	FinalScores map[PlayerID]int   `json:"finalScores"`
	Stats       GameStats          `json:"gameStats"`
	Winner      PlayerID           `json:"winner"` // Empty if tie or no players
	StartedAt   time.Time          `json:"startedAt"`
	CompletedAt time.Time          `json:"completedAt"`
}
