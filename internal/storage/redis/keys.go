package redis

import (
	"fmt"

	"github.com/mathrush/mathrush-go/internal/model"
)

// Key prefix for all archive data
const keyPrefix = "mathrush"

// snapshotKey returns the Redis key for a room snapshot
func snapshotKey(id model.RoomID) string {
	return fmt.Sprintf("%s:snapshot:%s", keyPrefix, id)
}

// summaryKey returns the Redis key for a completed-room summary
func summaryKey(id model.RoomID) string {
	return fmt.Sprintf("%s:summary:%s", keyPrefix, id)
}

// recentSummariesKey returns the Redis key for the LIST of recently
// completed room ids, most recent first
func recentSummariesKey() string {
	return fmt.Sprintf("%s:idx:recent_summaries", keyPrefix)
}
