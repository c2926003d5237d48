package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mathrush/mathrush-go/internal/gateway"
	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/reconciler"
)

func newPlayCmd() *cobra.Command {
	var playerID string
	var username string

	cmd := &cobra.Command{
		Use:   "play <roomID>",
		Short: "Join a room and play interactively",
		Long: `Connect to the room's websocket gateway, join the turn rotation, and
play from the terminal. When it is your turn, type the missing operand
and press enter.

Other commands:
  start   Start the game if the room is still waiting
  state   Print the latest room snapshot
  quit    Leave the room and disconnect

Press Ctrl+C to leave.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = playerID
			}
			return playRoom(args[0], playerID, username)
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player ID (required)")
	cmd.Flags().StringVar(&username, "username", "", "Display name (default: player ID)")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}

func playRoom(roomID, playerID, username string) error {
	nc, err := DialGateway(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	// Subscribe before joining so no snapshot is missed
	if err := nc.JoinRoom(roomID); err != nil {
		return err
	}
	if err := nc.JoinGame(roomID, playerID, username); err != nil {
		return err
	}

	rec := reconciler.New()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = nc.LeaveRoom(roomID, playerID)
		nc.Close()
	}()

	fmt.Printf("Joined room %s as %s\n", roomID, username)

	// Consume server events, feeding snapshots through the reconciler.
	// Stale or re-ordered snapshots never reach the display.
	go func() {
		for env := range nc.Events() {
			handlePlayEvent(env, rec, playerID)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "quit":
			_ = nc.LeaveRoom(roomID, playerID)
			nc.Close()
			fmt.Println("Left room")
			return nil
		case "start":
			if err := nc.StartGame(roomID); err != nil {
				fmt.Printf("Error: %s\n", err)
			}
			continue
		case "state":
			if snap := rec.Snapshot(); snap != nil {
				NewOutput(cfg.Output).Print(snap)
			} else {
				fmt.Println("No snapshot received yet")
			}
			continue
		}

		answer, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("Type a number, or one of: start, state, quit")
			continue
		}

		if !rec.IsCurrentPlayerTurn(playerID) {
			fmt.Println("Not your turn")
			continue
		}
		if rec.PendingMove() == reconciler.MoveAwaiting {
			fmt.Println("Previous move still pending")
			continue
		}

		if err := nc.SubmitMove(roomID, playerID, answer); err != nil {
			fmt.Printf("Error: %s\n", err)
			continue
		}
		rec.MarkMoveSubmitted()
	}

	return scanner.Err()
}

func handlePlayEvent(env gateway.Envelope, rec *reconciler.Reconciler, playerID string) {
	switch env.Event {
	case model.EventStateUpdated:
		var room model.Room
		if err := json.Unmarshal(env.Payload, &room); err != nil {
			return
		}
		if !rec.Apply(&room) {
			return
		}

		if rec.PendingMove() == reconciler.MoveConfirmed {
			rec.ClearPending()
			if room.LastMoveCorrect != nil && *room.LastMoveCorrect {
				fmt.Println("Correct!")
			} else {
				fmt.Println("Wrong answer")
			}
		}

		printTurnPrompt(&room, rec, playerID)

	case model.EventMoveError:
		var payload model.MoveErrorPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		rec.MarkMoveRejected()
		rec.ClearPending()
		fmt.Printf("Move rejected: %s\n", payload.Message)

	case model.EventPlayerJoined:
		var payload model.PlayerJoinedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		fmt.Printf("%s joined (%d players)\n", payload.Player.Username, len(payload.Players))

	case model.EventPlayerLeft:
		var payload model.PlayerLeftPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		fmt.Printf("%s left\n", payload.PlayerID)

	case model.EventGameStarted:
		fmt.Println("Game started!")
	}
}

func printTurnPrompt(room *model.Room, rec *reconciler.Reconciler, playerID string) {
	if room.Status != model.RoomStatusActive {
		return
	}

	if rec.IsCurrentPlayerTurn(playerID) {
		fmt.Printf("Your turn: %s\n> ", formatEquation(room.Equation))
		return
	}

	if current := room.CurrentPlayer(); current != nil {
		fmt.Printf("Waiting for %s...\n", current.Username)
	}
}
