package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathrush/mathrush-go/internal/model"
)

func snapshotAt(version int64, currentTurn int, players ...model.PlayerID) *model.Room {
	room := &model.Room{
		ID:          "R1",
		Status:      model.RoomStatusActive,
		Version:     version,
		CurrentTurn: currentTurn,
	}
	for _, id := range players {
		room.Players = append(room.Players, model.Player{ID: id})
	}
	return room
}

func TestApplyAcceptsStrictlyNewerVersions(t *testing.T) {
	r := New()

	assert.True(t, r.Apply(snapshotAt(1, 0, "A")))
	assert.Equal(t, int64(1), r.Version())

	assert.True(t, r.Apply(snapshotAt(5, 0, "A")))
	assert.Equal(t, int64(5), r.Version())
}

func TestApplyDiscardsStaleAndRedeliveredVersions(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(5, 1, "A", "B")))

	// Re-ordered delivery of an older broadcast
	assert.False(t, r.Apply(snapshotAt(4, 0, "A", "B")))
	// Redelivery of the already-seen version
	assert.False(t, r.Apply(snapshotAt(5, 1, "A", "B")))

	state := r.Snapshot()
	require.NotNil(t, state)
	assert.Equal(t, int64(5), state.Version)
	assert.Equal(t, 1, state.CurrentTurn)
}

func TestApplyNilIsNoOp(t *testing.T) {
	r := New()
	assert.False(t, r.Apply(nil))
	assert.Nil(t, r.Snapshot())
}

func TestApplyAcceptsVersionZeroFirstSnapshot(t *testing.T) {
	// A freshly created room broadcasts at version zero; the first
	// snapshot is accepted regardless
	r := New()
	assert.True(t, r.Apply(snapshotAt(0, 0)))
	assert.NotNil(t, r.Snapshot())
	assert.False(t, r.Apply(snapshotAt(0, 0)), "redelivery of version zero is discarded")
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(1, 0, "A")))

	state := r.Snapshot()
	state.Players[0].Score = 999
	state.Version = 42

	fresh := r.Snapshot()
	assert.Equal(t, 0, fresh.Players[0].Score)
	assert.Equal(t, int64(1), fresh.Version)
}

func TestIsCurrentPlayerTurn(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(3, 1, "A", "B")))

	assert.False(t, r.IsCurrentPlayerTurn("A"))
	assert.True(t, r.IsCurrentPlayerTurn("B"))
	assert.True(t, r.IsCurrentPlayerTurn("  B  "), "ids are canonicalized before comparing")
	assert.False(t, r.IsCurrentPlayerTurn(""))
	assert.False(t, r.IsCurrentPlayerTurn("C"))
}

func TestIsCurrentPlayerTurnWithoutState(t *testing.T) {
	r := New()
	assert.False(t, r.IsCurrentPlayerTurn("A"))

	require.True(t, r.Apply(snapshotAt(1, 0)))
	assert.False(t, r.IsCurrentPlayerTurn("A"), "an empty room has no current player")
}

func TestPendingMoveLifecycle(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(1, 0, "A")))
	assert.Equal(t, MoveNone, r.PendingMove())

	r.MarkMoveSubmitted()
	assert.Equal(t, MoveAwaiting, r.PendingMove())

	// The authoritative broadcast confirms the move
	require.True(t, r.Apply(snapshotAt(2, 0, "A")))
	assert.Equal(t, MoveConfirmed, r.PendingMove())

	r.ClearPending()
	assert.Equal(t, MoveNone, r.PendingMove())
}

func TestPendingMoveRejection(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(1, 0, "A")))

	r.MarkMoveSubmitted()
	r.MarkMoveRejected()
	assert.Equal(t, MoveRejected, r.PendingMove())

	// The rejection left the authoritative state untouched
	assert.Equal(t, int64(1), r.Version())

	r.ClearPending()
	assert.Equal(t, MoveNone, r.PendingMove())
}

func TestRejectionWithoutSubmissionIsIgnored(t *testing.T) {
	r := New()
	r.MarkMoveRejected()
	assert.Equal(t, MoveNone, r.PendingMove())
}

func TestStaleSnapshotDoesNotResolvePendingMove(t *testing.T) {
	r := New()
	require.True(t, r.Apply(snapshotAt(5, 0, "A")))

	r.MarkMoveSubmitted()
	assert.False(t, r.Apply(snapshotAt(4, 0, "A")))
	assert.Equal(t, MoveAwaiting, r.PendingMove(), "a discarded snapshot is not an outcome")
}
