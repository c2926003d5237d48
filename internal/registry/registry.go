package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mathrush/mathrush-go/internal/dependencies/clock"
	"github.com/mathrush/mathrush-go/internal/model"
)

// DefaultRetention is how long an empty room is kept before a sweep
// removes it. Deferred removal lets a briefly-disconnected last player
// rejoin without losing the room.
const DefaultRetention = 5 * time.Minute

// Registry is the process-wide mapping from room id to authoritative room
// state. Every mutation of a room happens inside WithRoom, under that
// room's own lock, so the room's version numbers form a total order.
// Operations on different rooms proceed in parallel.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*entry

	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
}

type entry struct {
	mu   sync.Mutex
	room *model.Room

	// emptySince is set when the room's rotation drains, zeroed when a
	// player joins again. Guarded by mu.
	emptySince time.Time
}

// New creates a Registry with the given retention window for empty rooms
func New(clk clock.Clock, retention time.Duration, logger *slog.Logger) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		rooms:     make(map[model.RoomID]*entry),
		clock:     clk,
		retention: retention,
		logger:    logger.With(slog.String("component", "registry")),
	}
}

// CreateRoom registers a new room in waiting status with the given
// initial equation, zeroed stats and version 0. Fails with
// ErrDuplicateRoom if the id is already present.
func (r *Registry) CreateRoom(id model.RoomID, difficulty string, eq model.Equation) (*model.Room, error) {
	now := r.clock.Now()

	room := &model.Room{
		ID:          id,
		Difficulty:  difficulty,
		Equation:    eq,
		Players:     []model.Player{},
		CurrentTurn: 0,
		Status:      model.RoomStatusWaiting,
		Version:     0,
		Timestamp:   now,
		CreatedAt:   now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; exists {
		return nil, model.ErrDuplicateRoom
	}
	r.rooms[id] = &entry{room: room, emptySince: now}

	r.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("difficulty", difficulty),
	)

	return room.Clone(), nil
}

// GetRoom returns a snapshot of the room, or false if it is absent.
// Absence is not an error; callers branch.
func (r *Registry) GetRoom(id model.RoomID) (*model.Room, bool) {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), true
}

// WithRoom runs fn against the room's authoritative state under the
// room's serialization lock. fn may mutate the room freely; occupancy
// bookkeeping for the retention sweep is updated afterwards. Returns
// ErrRoomNotFound if the room is absent.
func (r *Registry) WithRoom(id model.RoomID, fn func(room *model.Room) error) error {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.room); err != nil {
		return err
	}

	if len(e.room.Players) == 0 {
		if e.emptySince.IsZero() {
			e.emptySince = r.clock.Now()
		}
	} else {
		e.emptySince = time.Time{}
	}
	return nil
}

// RemoveRoom deletes the room. Idempotent.
func (r *Registry) RemoveRoom(id model.RoomID) {
	r.mu.Lock()
	_, existed := r.rooms[id]
	delete(r.rooms, id)
	r.mu.Unlock()

	if existed {
		r.logger.Info("room removed", slog.String("room_id", string(id)))
	}
}

// Sweep removes rooms that have been empty longer than the retention
// window and returns how many were removed. The server runs this on a
// ticker.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.retention)

	r.mu.RLock()
	candidates := make([]model.RoomID, 0)
	for id, e := range r.rooms {
		e.mu.Lock()
		if !e.emptySince.IsZero() && e.emptySince.Before(cutoff) {
			candidates = append(candidates, id)
		}
		e.mu.Unlock()
	}
	r.mu.RUnlock()

	removed := 0
	for _, id := range candidates {
		r.mu.Lock()
		e, ok := r.rooms[id]
		if ok {
			e.mu.Lock()
			if !e.emptySince.IsZero() && e.emptySince.Before(cutoff) {
				delete(r.rooms, id)
				removed++
			}
			e.mu.Unlock()
		}
		r.mu.Unlock()
	}

	if removed > 0 {
		r.logger.Info("empty rooms swept", slog.Int("removed", removed))
	}
	return removed
}

// Len returns the number of registered rooms
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
