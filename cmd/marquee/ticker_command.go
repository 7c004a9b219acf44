package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newTickerCommand(ctx *commandContext) *cobra.Command {
	tickerCmd := &cobra.Command{
		Use:   "ticker",
		Short: "Ticker overlay utilities",
	}

	speedCmd := &cobra.Command{
		Use:   "speed <pixels-per-tick>",
		Short: "Change the ticker scroll speed on the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speed, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse speed %q: %w", args[0], err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TickerSpeed(speed)
				if err != nil {
					return fmt.Errorf("set ticker speed: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if !resp.Applied {
					fmt.Fprintf(stdout, "Ticker speed not changed: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintf(stdout, "Ticker speed set to %.1f\n", speed)
				return nil
			})
		},
	}

	tickerCmd.AddCommand(speedCmd)
	return tickerCmd
}
