package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mathrush/mathrush-go/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case model.Room:
		o.printRoom(&v)
	case *model.Room:
		o.printRoom(v)
	case Summary:
		o.printSummary(v)
	case SummaryList:
		o.printSummaryList(v)
	case EndRoomResult:
		o.printEndRoomResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Summary response type (matches API)
type Summary struct {
	RoomID      string         `json:"roomId"`
	FinalScores map[string]int `json:"finalScores"`
	Stats       GameStats      `json:"gameStats"`
	Winner      *string        `json:"winner"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// GameStats response type
type GameStats struct {
	TotalMoves     int `json:"totalMoves"`
	CorrectAnswers int `json:"correctAnswers"`
	BestStreak     int `json:"bestStreak"`
}

// SummaryList response type
type SummaryList struct {
	Summaries []Summary `json:"summaries"`
}

// EndRoomResult response type
type EndRoomResult struct {
	Room    *model.Room `json:"room"`
	Summary Summary     `json:"summary"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func (o *Output) printRoom(r *model.Room) {
	fmt.Printf("Room: %s\n", r.ID)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %d\n", r.Version)
	if r.Difficulty != "" {
		fmt.Printf("Difficulty: %s\n", r.Difficulty)
	}
	fmt.Printf("Equation: %s\n", formatEquation(r.Equation))

	fmt.Printf("Players (%d):\n", len(r.Players))
	for i, p := range r.Players {
		turnStr := ""
		if r.Status == model.RoomStatusActive && i == r.CurrentTurn {
			turnStr = " [turn]"
		}
		fmt.Printf("  - %s (%s) - %d pts, streak %d%s\n", p.Username, p.ID, p.Score, p.Streak, turnStr)
	}

	if r.Stats.TotalMoves > 0 {
		fmt.Printf("Moves: %d (%d correct, best streak %d)\n",
			r.Stats.TotalMoves, r.Stats.CorrectAnswers, r.Stats.BestStreak)
	}

	if r.LastMoveCorrect != nil {
		resultStr := "incorrect"
		if *r.LastMoveCorrect {
			resultStr = "correct"
		}
		fmt.Printf("Last Move: %s\n", resultStr)
	}
}

func (o *Output) printSummary(s Summary) {
	fmt.Printf("Room: %s\n", s.RoomID)
	if s.Winner != nil {
		fmt.Printf("Winner: %s\n", *s.Winner)
	} else {
		fmt.Println("Winner: (tie)")
	}
	fmt.Println("Final Scores:")
	for pid, score := range s.FinalScores {
		fmt.Printf("  %s: %d pts\n", pid, score)
	}
	fmt.Printf("Moves: %d (%d correct, best streak %d)\n",
		s.Stats.TotalMoves, s.Stats.CorrectAnswers, s.Stats.BestStreak)
	fmt.Printf("Started: %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Printf("Completed: %s\n", s.CompletedAt.Format(time.RFC3339))
}

func (o *Output) printSummaryList(l SummaryList) {
	fmt.Printf("Summaries (%d):\n", len(l.Summaries))
	for _, s := range l.Summaries {
		winner := "(tie)"
		if s.Winner != nil {
			winner = *s.Winner
		}
		fmt.Printf("  - %s  winner: %s  moves: %d  completed: %s\n",
			s.RoomID, winner, s.Stats.TotalMoves, s.CompletedAt.Format(time.RFC3339))
	}
}

func (o *Output) printEndRoomResult(e EndRoomResult) {
	fmt.Println("Room ended")
	o.printSummary(e.Summary)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Rooms: %d\n", h.Rooms)
}

func formatEquation(eq model.Equation) string {
	return fmt.Sprintf("%d %s %s = %d", eq.Left, eq.Operator, eq.Right, eq.Result)
}
