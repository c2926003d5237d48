package turn

import (
	"log/slog"

	"github.com/mathrush/mathrush-go/internal/dependencies/clock"
	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/registry"
	"github.com/mathrush/mathrush-go/internal/services/equation"
)

// PointsPerCorrectAnswer is awarded for each correctly solved equation
const PointsPerCorrectAnswer = 10

// Sink receives room mutations as they are accepted. Sinks are invoked
// inside the room's serialization point, so for any one room they
// observe mutations in exactly the order the server applied them.
// Implementations must not block: the gateway sink enqueues onto the
// hub's broadcast channel and the archive sink onto a worker channel.
type Sink interface {
	RoomChanged(room *model.Room)
	RoomCompleted(summary *model.RoomSummary)
}

// Coordinator owns every mutation of room state: joins, leaves, moves,
// timeouts and lifecycle transitions. All work on a given room happens
// inside the registry's per-room serialization point, so accepted
// mutations (and their version numbers) form a total order per room.
type Coordinator struct {
	registry  *registry.Registry
	generator *equation.Generator
	clock     clock.Clock
	logger    *slog.Logger
	sinks     []Sink
}

// NewCoordinator creates a Coordinator
func NewCoordinator(reg *registry.Registry, gen *equation.Generator, clk clock.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry:  reg,
		generator: gen,
		clock:     clk,
		logger:    logger.With(slog.String("component", "turn")),
	}
}

// AddSink registers a mutation sink. Not safe to call once the
// coordinator is serving traffic.
func (c *Coordinator) AddSink(sink Sink) {
	c.sinks = append(c.sinks, sink)
}

func (c *Coordinator) notifyChanged(room *model.Room) {
	for _, s := range c.sinks {
		s.RoomChanged(room)
	}
}

func (c *Coordinator) notifyCompleted(summary *model.RoomSummary) {
	for _, s := range c.sinks {
		s.RoomCompleted(summary)
	}
}

// CreateRoom registers a new waiting room with a fresh equation
func (c *Coordinator) CreateRoom(roomID model.RoomID, difficulty string) (*model.Room, error) {
	if roomID == "" {
		return nil, model.ErrInvalidPayload
	}

	room, err := c.registry.CreateRoom(roomID, difficulty, c.generator.Generate())
	if err != nil {
		return nil, err
	}

	// No client can have joined yet, so notifying outside the room lock
	// cannot reorder with other mutations of this room
	c.notifyChanged(room)
	return room, nil
}

// GetRoom returns a snapshot of the room, or false if absent
func (c *Coordinator) GetRoom(roomID model.RoomID) (*model.Room, bool) {
	return c.registry.GetRoom(roomID)
}

// Join adds a player to the end of the room's turn rotation. Idempotent
// with respect to the canonical player id: rejoining returns the current
// state without a duplicate entry or a version bump. A waiting room
// becomes active on first join.
func (c *Coordinator) Join(roomID model.RoomID, player model.Player) (*model.Room, error) {
	player.ID = model.CanonicalID(string(player.ID))
	if player.ID == "" {
		return nil, model.ErrInvalidPayload
	}

	var snapshot *model.Room
	var joined bool
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		if room.Status == model.RoomStatusCompleted {
			return model.ErrRoomCompleted
		}

		if room.PlayerIndex(player.ID) >= 0 {
			snapshot = room.Clone()
			return nil
		}

		player.Score = 0
		player.Streak = 0
		room.Players = append(room.Players, player)
		if room.Status == model.RoomStatusWaiting {
			room.Status = model.RoomStatusActive
		}
		room.Version++
		room.Timestamp = c.clock.Now()

		snapshot = room.Clone()
		joined = true
		c.notifyChanged(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if joined {
		c.logger.Info("player joined",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(player.ID)),
			slog.Int("player_count", len(snapshot.Players)),
		)
	}
	return snapshot, nil
}

// Leave removes a player from the rotation. The turn index is adjusted
// so the rotation continues coherently: removing a player at or before
// the current turn shifts the index down, clamped to zero. Removing an
// unknown player is a no-op. An emptied room stays registered until the
// retention sweep collects it.
func (c *Coordinator) Leave(roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	playerID = model.CanonicalID(string(playerID))

	var snapshot *model.Room
	var left bool
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		idx := room.PlayerIndex(playerID)
		if idx < 0 {
			snapshot = room.Clone()
			return nil
		}

		room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
		if idx <= room.CurrentTurn && room.CurrentTurn > 0 {
			room.CurrentTurn--
		}
		if room.CurrentTurn >= len(room.Players) {
			room.CurrentTurn = 0
		}
		room.Version++
		room.Timestamp = c.clock.Now()

		snapshot = room.Clone()
		left = true
		c.notifyChanged(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if left {
		c.logger.Info("player left",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(playerID)),
			slog.Int("player_count", len(snapshot.Players)),
		)
	}
	return snapshot, nil
}

// StartRoom explicitly moves a waiting room to active. Starting an
// already-active room is a no-op.
func (c *Coordinator) StartRoom(roomID model.RoomID) (*model.Room, error) {
	var snapshot *model.Room
	var started bool
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		switch room.Status {
		case model.RoomStatusCompleted:
			return model.ErrRoomCompleted
		case model.RoomStatusActive:
			snapshot = room.Clone()
			return nil
		}

		room.Status = model.RoomStatusActive
		room.Version++
		room.Timestamp = c.clock.Now()

		snapshot = room.Clone()
		started = true
		c.notifyChanged(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if started {
		c.logger.Info("room started", slog.String("room_id", string(roomID)))
	}
	return snapshot, nil
}

// EndRoom moves a room to completed and produces its summary. There is
// no transition out of completed; ending twice fails with
// ErrRoomCompleted.
func (c *Coordinator) EndRoom(roomID model.RoomID) (*model.Room, *model.RoomSummary, error) {
	var snapshot *model.Room
	var summary *model.RoomSummary
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		if room.Status == model.RoomStatusCompleted {
			return model.ErrRoomCompleted
		}

		room.Status = model.RoomStatusCompleted
		room.Version++
		room.Timestamp = c.clock.Now()

		snapshot = room.Clone()
		summary = c.buildSummary(room)
		c.notifyChanged(snapshot)
		c.notifyCompleted(summary)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	c.logger.Info("room completed",
		slog.String("room_id", string(roomID)),
		slog.Int("total_moves", snapshot.Stats.TotalMoves),
		slog.Int("best_streak", snapshot.Stats.BestStreak),
	)
	return snapshot, summary, nil
}

func (c *Coordinator) buildSummary(room *model.Room) *model.RoomSummary {
	scores := make(map[model.PlayerID]int, len(room.Players))
	var winner model.PlayerID
	best, tied := -1, false
	for _, p := range room.Players {
		scores[p.ID] = p.Score
		switch {
		case p.Score > best:
			best, winner, tied = p.Score, p.ID, false
		case p.Score == best:
			tied = true
		}
	}
	if tied {
		winner = ""
	}

	return &model.RoomSummary{
		RoomID:      room.ID,
		FinalScores: scores,
		Stats:       room.Stats,
		Winner:      winner,
		StartedAt:   room.CreatedAt,
		CompletedAt: c.clock.Now(),
	}
}

// SubmitMove resolves an answer submitted by the player whose turn it
// is. The answer is checked against the current equation, scores and
// streaks are updated, a fresh equation replaces the old one, and the
// turn advances regardless of correctness. Turn-ownership violations
// leave the room untouched, version included.
func (c *Coordinator) SubmitMove(roomID model.RoomID, playerID model.PlayerID, selected int) (*model.Room, error) {
	playerID = model.CanonicalID(string(playerID))

	var snapshot *model.Room
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		if room.Status == model.RoomStatusCompleted {
			return model.ErrRoomCompleted
		}
		if room.Status != model.RoomStatusActive {
			return model.ErrRoomNotActive
		}

		current := room.CurrentPlayer()
		if current == nil || current.ID != playerID {
			return model.ErrNotYourTurn
		}

		correct := equation.Validate(selected, room.Equation)
		c.resolveMove(room, correct)

		snapshot = room.Clone()
		c.notifyChanged(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// HandleTurnTimeout resolves the current turn as a forced-incorrect move
// when the per-turn deadline elapsed at the given version. A timeout that
// arrives after the room has already advanced (version mismatch) is a
// no-op; the bool reports whether the timeout was applied.
func (c *Coordinator) HandleTurnTimeout(roomID model.RoomID, forVersion int64) (*model.Room, bool, error) {
	var snapshot *model.Room
	err := c.registry.WithRoom(roomID, func(room *model.Room) error {
		if room.Version != forVersion || room.Status != model.RoomStatusActive {
			return nil
		}
		if room.CurrentPlayer() == nil {
			return nil
		}

		c.resolveMove(room, false)
		snapshot = room.Clone()
		c.notifyChanged(snapshot)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if snapshot == nil {
		return nil, false, nil
	}

	c.logger.Info("turn timed out",
		slog.String("room_id", string(roomID)),
		slog.Int64("version", snapshot.Version),
	)
	return snapshot, true, nil
}

// resolveMove applies the outcome of a turn: stats, score, streak, a new
// equation and the unconditional turn advance. Runs under the room lock.
func (c *Coordinator) resolveMove(room *model.Room, correct bool) {
	player := &room.Players[room.CurrentTurn]

	room.Stats.TotalMoves++
	if correct {
		room.Stats.CorrectAnswers++
		player.Score += PointsPerCorrectAnswer
		player.Streak++
		if player.Streak > room.Stats.BestStreak {
			room.Stats.BestStreak = player.Streak
		}
	} else {
		player.Streak = 0
	}

	room.Equation = c.generator.Generate()
	room.CurrentTurn = (room.CurrentTurn + 1) % len(room.Players)
	room.LastMoveCorrect = &correct
	room.Version++
	room.Timestamp = c.clock.Now()
}
