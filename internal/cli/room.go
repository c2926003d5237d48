package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathrush/mathrush-go/internal/model"
)

func newCreateCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "create <roomID>",
		Short: "Create a new game room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"roomId": args[0]}
			if difficulty != "" {
				req["difficulty"] = difficulty
			}

			var result model.Room

			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty label (default: server default)")

	return cmd
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <roomID>",
		Short: "Get the current state of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Room

			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <roomID>",
		Short: "Start the game in a waiting room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/start", args[0]), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <roomID>",
		Short: "End a room and archive its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result EndRoomResult

			if err := client.Delete(fmt.Sprintf("/api/v1/rooms/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
