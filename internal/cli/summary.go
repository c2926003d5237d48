package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "summary [roomID]",
		Short: "Show a completed room's summary, or list recent summaries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if len(args) == 1 {
				var result Summary

				if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s/summary", args[0]), &result); err != nil {
					return err
				}

				out.Print(result)
				return nil
			}

			var result SummaryList

			path := "/api/v1/summaries"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Max summaries to list (default: server default)")

	return cmd
}
