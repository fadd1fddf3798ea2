package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsned/stt-collections-server/internal/collections/sync"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a player export, collection catalog or honor prices",
	Long:  "Imports raw JSON exports into the database. The player roster and catalog are parsed in parallel; the catalog is stored for the imported player.",
	RunE:  runImport,
}

var (
	importPlayer  string
	importCatalog string
	importPrices  string
)

func init() {
	importCmd.Flags().StringVarP(&importPlayer, "player", "p", "", "Path to player export JSON file")
	importCmd.Flags().StringVarP(&importCatalog, "catalog", "c", "", "Path to collection catalog JSON file (requires --player)")
	importCmd.Flags().StringVar(&importPrices, "prices", "", "Path to honor price JSON file")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	if importPlayer == "" && importPrices == "" {
		return fmt.Errorf("nothing to import: use --player and/or --prices")
	}
	if importCatalog != "" && importPlayer == "" {
		return fmt.Errorf("--catalog requires --player")
	}

	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	syncer := sync.NewSyncer(a.db, a.logger)

	if importPlayer != "" {
		a.logger.Info("importing player", "file", importPlayer, "catalog", importCatalog)
		res, err := syncer.ImportSnapshot(ctx, importPlayer, importCatalog)
		if err != nil {
			return fmt.Errorf("importing player: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "player %s: %d owned crew, %d unowned crew", res.PlayerID, res.OwnedCrew, res.UnownedCrew)
		if res.CatalogFound {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d collections", res.Collections)
		}
		fmt.Fprintf(cmd.OutOrStdout(), " (stored: %d crew, %d collections)\n", res.StoredCrew, res.StoredCollections)
	}

	if importPrices != "" {
		a.logger.Info("importing honor prices", "file", importPrices)
		if err := syncer.ImportPricesFile(ctx, importPrices); err != nil {
			return fmt.Errorf("importing prices: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "honor prices imported")
	}

	return nil
}
