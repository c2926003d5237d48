// Package reconciler maintains a client's read-only projection of a
// room. The server is the sole source of truth; the client applies
// broadcast snapshots only when they are strictly newer than what it
// already holds, so re-ordered or re-delivered broadcasts can never
// roll the local view backwards.
package reconciler

import (
	"sync"

	"github.com/mathrush/mathrush-go/internal/model"
)

// MoveStatus tracks the lifecycle of an optimistically submitted move.
// The local view never mutates shared fields speculatively; it changes
// only when the authoritative broadcast returns.
type MoveStatus string

const (
	// MoveNone means no submission is in flight
	MoveNone MoveStatus = "none"
	// MoveAwaiting means a move was sent and no outcome has arrived
	MoveAwaiting MoveStatus = "awaiting"
	// MoveConfirmed means the server applied the move and the local
	// state reflects it
	MoveConfirmed MoveStatus = "confirmed"
	// MoveRejected means the server answered with an error; the local
	// state is unchanged
	MoveRejected MoveStatus = "rejected"
)

// Reconciler holds the last-accepted room snapshot and its version.
// Safe for concurrent use; the network reader applies snapshots while
// the UI reads.
type Reconciler struct {
	mu      sync.Mutex
	state   *model.Room
	version int64
	pending MoveStatus
}

// New creates an empty reconciler at version zero
func New() *Reconciler {
	return &Reconciler{pending: MoveNone}
}

// Apply offers a broadcast snapshot. Snapshots at or below the local
// version are discarded and reported false; redelivery of an
// already-seen version is therefore a no-op. An accepted snapshot
// resolves an in-flight move to confirmed.
func (r *Reconciler) Apply(snapshot *model.Room) bool {
	if snapshot == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != nil && snapshot.Version <= r.version {
		return false
	}

	r.state = snapshot.Clone()
	r.version = snapshot.Version
	if r.pending == MoveAwaiting {
		r.pending = MoveConfirmed
	}
	return true
}

// Snapshot returns a copy of the last-accepted state, nil before the
// first accepted snapshot
func (r *Reconciler) Snapshot() *model.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil
	}
	return r.state.Clone()
}

// Version returns the last-accepted version, zero before the first
// accepted snapshot
func (r *Reconciler) Version() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// IsCurrentPlayerTurn reports whether the rotation currently points at
// the given player. Both sides are canonicalized, so legacy id spellings
// compare equal. False while no snapshot is held or the room is empty.
func (r *Reconciler) IsCurrentPlayerTurn(localPlayerID string) bool {
	local := model.CanonicalID(localPlayerID)
	if local == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		return false
	}
	current := r.state.CurrentPlayer()
	if current == nil {
		return false
	}
	return model.CanonicalID(string(current.ID)) == local
}

// MarkMoveSubmitted records that a move was sent and its outcome is
// pending. The displayed state does not change until the broadcast or
// the error comes back.
func (r *Reconciler) MarkMoveSubmitted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = MoveAwaiting
}

// MarkMoveRejected records a unicast error for the in-flight move
func (r *Reconciler) MarkMoveRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == MoveAwaiting {
		r.pending = MoveRejected
	}
}

// ClearPending resets the move lifecycle once the UI has shown the
// outcome
func (r *Reconciler) ClearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = MoveNone
}

// PendingMove returns the current move lifecycle state
func (r *Reconciler) PendingMove() MoveStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}
