package memory

import (
	"context"
	"sync"

	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/storage"
)

// Storage is an in-memory implementation of the archive interface
type Storage struct {
	mu sync.RWMutex

	snapshots map[model.RoomID]*model.Room
	summaries map[model.RoomID]*model.RoomSummary

	// recent holds room ids in most-recently-completed-first order
	recent []model.RoomID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		snapshots: make(map[model.RoomID]*model.Room),
		summaries: make(map[model.RoomID]*model.RoomSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[room.ID] = room.Clone()
	return nil
}

func (s *Storage) GetSnapshot(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.snapshots[id]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// Summary operations

func (s *Storage) SaveSummary(ctx context.Context, summary *model.RoomSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.summaries[summary.RoomID]; !seen {
		s.recent = append([]model.RoomID{summary.RoomID}, s.recent...)
	}
	s.summaries[summary.RoomID] = summary
	return nil
}

func (s *Storage) GetSummary(ctx context.Context, id model.RoomID) (*model.RoomSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[id]
	if !ok {
		return nil, model.ErrSummaryNotFound
	}
	return summary, nil
}

func (s *Storage) ListRecentSummaries(ctx context.Context, limit int) ([]*model.RoomSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}

	result := make([]*model.RoomSummary, 0, limit)
	for _, id := range s.recent[:limit] {
		if summary, ok := s.summaries[id]; ok {
			result = append(result, summary)
		}
	}
	return result, nil
}
