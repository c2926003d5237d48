package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mathrush/mathrush-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) testRoom(id model.RoomID, version int64) *model.Room {
	return &model.Room{
		ID:       id,
		Equation: model.Equation{Left: 3, Operator: model.OperatorAdd, Right: model.UnknownOperand, Result: 10},
		Players:  []model.Player{{ID: "A", Username: "alice", Score: 10, Streak: 1}},
		Status:   model.RoomStatusActive,
		Version:  version,
	}
}

func (s *StorageSuite) TestSaveAndGetSnapshot() {
	err := s.storage.SaveSnapshot(s.ctx, s.testRoom("R1", 3))
	s.Require().NoError(err)

	room, err := s.storage.GetSnapshot(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(model.RoomID("R1"), room.ID)
	s.Equal(int64(3), room.Version)
	s.Len(room.Players, 1)
}

func (s *StorageSuite) TestGetSnapshotNotFound() {
	_, err := s.storage.GetSnapshot(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestSaveSnapshotStoresACopy() {
	room := s.testRoom("R1", 1)
	err := s.storage.SaveSnapshot(s.ctx, room)
	s.Require().NoError(err)

	room.Players[0].Score = 999

	stored, err := s.storage.GetSnapshot(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(10, stored.Players[0].Score)
}

func (s *StorageSuite) TestDeleteSnapshot() {
	_ = s.storage.SaveSnapshot(s.ctx, s.testRoom("R1", 1))

	err := s.storage.DeleteSnapshot(s.ctx, "R1")
	s.Require().NoError(err)

	_, err = s.storage.GetSnapshot(s.ctx, "R1")
	s.ErrorIs(err, model.ErrSnapshotNotFound)

	// Idempotent
	s.NoError(s.storage.DeleteSnapshot(s.ctx, "R1"))
}

func (s *StorageSuite) TestSaveAndGetSummary() {
	summary := &model.RoomSummary{
		RoomID:      "R1",
		FinalScores: map[model.PlayerID]int{"A": 30, "B": 10},
		Winner:      "A",
		CompletedAt: time.Now(),
	}

	err := s.storage.SaveSummary(s.ctx, summary)
	s.Require().NoError(err)

	stored, err := s.storage.GetSummary(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("A"), stored.Winner)
	s.Equal(30, stored.FinalScores["A"])
}

func (s *StorageSuite) TestGetSummaryNotFound() {
	_, err := s.storage.GetSummary(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSummaryNotFound)
}

func (s *StorageSuite) TestListRecentSummariesOrdered() {
	for _, id := range []model.RoomID{"R1", "R2", "R3"} {
		err := s.storage.SaveSummary(s.ctx, &model.RoomSummary{RoomID: id})
		s.Require().NoError(err)
	}

	summaries, err := s.storage.ListRecentSummaries(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)
	s.Equal(model.RoomID("R3"), summaries[0].RoomID)
	s.Equal(model.RoomID("R2"), summaries[1].RoomID)
}

func (s *StorageSuite) TestListRecentSummariesUnlimited() {
	for _, id := range []model.RoomID{"R1", "R2"} {
		_ = s.storage.SaveSummary(s.ctx, &model.RoomSummary{RoomID: id})
	}

	summaries, err := s.storage.ListRecentSummaries(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(summaries, 2)
}
