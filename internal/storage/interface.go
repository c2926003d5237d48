package storage

import (
	"context"

	"github.com/mathrush/mathrush-go/internal/model"
)

// Storage defines the interface for the room archive. The archive is a
// read-side convenience: the in-memory registry stays authoritative for
// live rooms, and the archive is written asynchronously so persistence
// never gates a broadcast.
type Storage interface {
	// Snapshot operations
	SaveSnapshot(ctx context.Context, room *model.Room) error
	GetSnapshot(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteSnapshot(ctx context.Context, id model.RoomID) error

	// Summary operations
	SaveSummary(ctx context.Context, summary *model.RoomSummary) error
	GetSummary(ctx context.Context, id model.RoomID) (*model.RoomSummary, error)
	ListRecentSummaries(ctx context.Context, limit int) ([]*model.RoomSummary, error)
}
