package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/identity"
)

func newIdentityCommand(ctx *commandContext) *cobra.Command {
	identityCmd := &cobra.Command{
		Use:   "identity",
		Short: "Player identity utilities",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored player identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := identity.NewStore(cfg.Paths.DataDir)
			record, err := store.Load(cfg.Player.Name, cfg.Player.Location)
			if err != nil {
				return fmt.Errorf("load identity: %w", err)
			}
			stdout := cmd.OutOrStdout()
			headers := []string{"Field", "Value"}
			playerID := record.PlayerID
			if playerID == "" {
				playerID = "(unregistered)"
			}
			rows := [][]string{
				{"Name", record.Name},
				{"Location", record.Location},
				{"Player ID", playerID},
				{"Registered", yesNo(record.Registered())},
			}
			fmt.Fprintln(stdout, renderTable(headers, rows))
			return nil
		},
	}

	var resetConfirmed bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard stored credentials so the player re-registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !resetConfirmed {
				return fmt.Errorf("identity reset discards the player's registration; re-run with --yes to confirm")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := identity.NewStore(cfg.Paths.DataDir).Reset(); err != nil {
				return fmt.Errorf("reset identity: %w", err)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, "Identity reset; the player will register again on the next daemon start")
			return nil
		},
	}
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm the reset")

	identityCmd.AddCommand(showCmd)
	identityCmd.AddCommand(resetCmd)
	return identityCmd
}
