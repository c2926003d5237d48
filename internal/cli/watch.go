package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathrush/mathrush-go/internal/gateway"
	"github.com/mathrush/mathrush-go/internal/model"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <roomID>",
		Short: "Stream realtime events from a room",
		Long: `Connect to the room's websocket gateway and stream events in real-time.

Events include:
  - state-updated: New authoritative room snapshot
  - player-joined: A player joined the rotation
  - player-left: A player left or disconnected
  - game-started: The room became active

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// WatchEvent is one streamed event with its receive time
type WatchEvent struct {
	Time    time.Time       `json:"time"`
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func watchRoom(roomID string, jsonOutput bool) error {
	nc, err := DialGateway(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	if err := nc.JoinRoom(roomID); err != nil {
		return err
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		nc.Close()
	}()

	if !jsonOutput {
		fmt.Printf("Connected to room %s\n", roomID)
	}

	for env := range nc.Events() {
		printWatchEvent(env, jsonOutput)
	}

	if !jsonOutput {
		fmt.Println("\nDisconnected")
	}
	return nil
}

func printWatchEvent(env gateway.Envelope, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := WatchEvent{
			Time:    now,
			Event:   env.Event,
			Payload: env.Payload,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")

	// Snapshots get a condensed one-line rendering; everything else
	// prints its raw payload, truncated for display
	if env.Event == model.EventStateUpdated {
		var room model.Room
		if err := json.Unmarshal(env.Payload, &room); err == nil {
			fmt.Printf("[%s] %s: %s\n", timestamp, env.Event, condenseRoom(&room))
			return
		}
	}

	displayData := string(env.Payload)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	fmt.Printf("[%s] %s: %s\n", timestamp, env.Event, displayData)
}

func condenseRoom(r *model.Room) string {
	parts := []string{
		fmt.Sprintf("v%d", r.Version),
		string(r.Status),
		formatEquation(r.Equation),
	}

	if current := r.CurrentPlayer(); current != nil {
		parts = append(parts, fmt.Sprintf("turn: %s", current.Username))
	}

	scores := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		scores = append(scores, fmt.Sprintf("%s=%d", p.Username, p.Score))
	}
	if len(scores) > 0 {
		parts = append(parts, strings.Join(scores, " "))
	}

	return strings.Join(parts, " | ")
}
