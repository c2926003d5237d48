package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/storage"
)

const (
	// jobBufferSize bounds the persistence backlog. The archive is a
	// read-side convenience, so overflow drops the write rather than
	// ever blocking a room mutation.
	jobBufferSize = 256

	// writeTimeout bounds a single storage operation
	writeTimeout = 5 * time.Second
)

type job struct {
	room    *model.Room
	summary *model.RoomSummary
}

// Service persists room snapshots and completed-room summaries
// asynchronously. It implements turn.Sink: mutations are handed to a
// worker goroutine through a buffered channel, so persistence never
// gates a broadcast.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	jobs chan job
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates the archive service and starts its worker
func New(store storage.Storage, logger *slog.Logger) *Service {
	s := &Service{
		storage: store,
		logger:  logger.With(slog.String("component", "archive")),
		jobs:    make(chan job, jobBufferSize),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// RoomChanged enqueues a snapshot write. Never blocks; drops with a
// warning if the backlog is full.
func (s *Service) RoomChanged(room *model.Room) {
	s.enqueue(job{room: room})
}

// RoomCompleted enqueues a summary write
func (s *Service) RoomCompleted(summary *model.RoomSummary) {
	s.enqueue(job{summary: summary})
}

func (s *Service) enqueue(j job) {
	select {
	case s.jobs <- j:
	default:
		s.logger.Warn("archive write dropped - backlog full")
	}
}

// Close stops the worker after draining queued writes
func (s *Service) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Service) run() {
	defer s.wg.Done()

	for {
		select {
		case j := <-s.jobs:
			s.persist(j)
		case <-s.done:
			// Drain whatever is already queued before exiting
			for {
				select {
				case j := <-s.jobs:
					s.persist(j)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) persist(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if j.room != nil {
		if err := s.storage.SaveSnapshot(ctx, j.room); err != nil {
			s.logger.Error("failed to save snapshot",
				slog.String("room_id", string(j.room.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	if j.summary != nil {
		if err := s.storage.SaveSummary(ctx, j.summary); err != nil {
			s.logger.Error("failed to save summary",
				slog.String("room_id", string(j.summary.RoomID)),
				slog.String("error", err.Error()),
			)
		}
	}
}
