package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deletePlayerCmd = &cobra.Command{
	Use:   "delete-player",
	Short: "Remove an imported player with its roster and catalog",
	RunE:  runDeletePlayer,
}

var deletePlayerID string

func init() {
	deletePlayerCmd.Flags().StringVar(&deletePlayerID, "player-id", "", "Imported player ID (required)")

	if err := deletePlayerCmd.MarkFlagRequired("player-id"); err != nil {
		panic(fmt.Sprintf("failed to mark player-id flag as required: %v", err))
	}

	rootCmd.AddCommand(deletePlayerCmd)
}

func runDeletePlayer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	if err := eng.DeletePlayer(ctx, deletePlayerID); err != nil {
		return fmt.Errorf("deleting player: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "player %s deleted\n", deletePlayerID)
	return nil
}
