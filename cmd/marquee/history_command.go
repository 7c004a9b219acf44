package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent playback journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return fmt.Errorf("fetch history: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "No playback history recorded")
					return nil
				}
				headers := []string{"When", "Event", "Media", "Detail"}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					media := entry.MediaName
					if media == "" {
						media = entry.MediaID
					}
					rows = append(rows, []string{
						entry.OccurredAt.Local().Format("2006-01-02 15:04:05"),
						entry.Event,
						media,
						entry.Detail,
					})
				}
				fmt.Fprintln(stdout, renderTable(headers, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
