package response

import (
	"time"

	"github.com/mathrush/mathrush-go/internal/model"
)

// Room snapshots are returned as-is: model.Room already carries the
// wire field names the realtime layer broadcasts, so HTTP and socket
// clients parse one shape.

// Summary represents a completed room in API responses
type Summary struct {
	RoomID      string          `json:"roomId"`
	FinalScores map[string]int  `json:"finalScores"`
	Stats       model.GameStats `json:"gameStats"`
	Winner      *string         `json:"winner"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt time.Time       `json:"completedAt"`
}

// SummaryFromModel converts model.RoomSummary
func SummaryFromModel(s *model.RoomSummary) Summary {
	scores := make(map[string]int, len(s.FinalScores))
	for pid, score := range s.FinalScores {
		scores[string(pid)] = score
	}
	var winner *string
	if s.Winner != "" {
		w := string(s.Winner)
		winner = &w
	}
	return Summary{
		RoomID:      string(s.RoomID),
		FinalScores: scores,
		Stats:       s.Stats,
		Winner:      winner,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

// SummaryList wraps the recent-summaries listing
type SummaryList struct {
	Summaries []Summary `json:"summaries"`
}

// SummaryListFromModel converts a slice of model.RoomSummary
func SummaryListFromModel(summaries []*model.RoomSummary) SummaryList {
	out := SummaryList{Summaries: make([]Summary, 0, len(summaries))}
	for _, s := range summaries {
		out.Summaries = append(out.Summaries, SummaryFromModel(s))
	}
	return out
}

// EndRoom is the response for ending a room: the final snapshot plus
// its archived summary
type EndRoom struct {
	Room    *model.Room `json:"room"`
	Summary Summary     `json:"summary"`
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}
