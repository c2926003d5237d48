package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/storage"
)

// Storage is a Redis-backed implementation of the archive interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(room.ID), data, s.cfg.SnapshotTTL).Err()
}

func (s *Storage) GetSnapshot(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, id model.RoomID) error {
	return s.client.Del(ctx, snapshotKey(id)).Err()
}

// Summary operations

func (s *Storage) SaveSummary(ctx context.Context, summary *model.RoomSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	indexKey := recentSummariesKey()

	// Pipeline the summary write with the recent-index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, summaryKey(summary.RoomID), data, s.cfg.SummaryTTL)
	pipe.LPush(ctx, indexKey, string(summary.RoomID))
	if s.cfg.RecentSummaryLimit > 0 {
		pipe.LTrim(ctx, indexKey, 0, int64(s.cfg.RecentSummaryLimit-1))
	}
	pipe.Expire(ctx, indexKey, s.cfg.SummaryTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSummary(ctx context.Context, id model.RoomID) (*model.RoomSummary, error) {
	data, err := s.client.Get(ctx, summaryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSummaryNotFound
		}
		return nil, err
	}

	var summary model.RoomSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Storage) ListRecentSummaries(ctx context.Context, limit int) ([]*model.RoomSummary, error) {
	if limit <= 0 {
		limit = s.cfg.RecentSummaryLimit
	}

	ids, err := s.client.LRange(ctx, recentSummariesKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.RoomSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = summaryKey(model.RoomID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.RoomSummary, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Summary may have expired out from under the index
		}
		var summary model.RoomSummary
		if err := json.Unmarshal([]byte(val.(string)), &summary); err != nil {
			continue // Skip invalid data
		}
		summaries = append(summaries, &summary)
	}
	return summaries, nil
}
