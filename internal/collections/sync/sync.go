// Package sync imports player and collection catalog exports into the database.
package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rsned/stt-collections-server/internal/collections/db"
	"github.com/rsned/stt-collections-server/pkg/collections"
)

// Syncer imports exports into the database.
type Syncer struct {
	db     *db.DB
	logger *slog.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{db: database, logger: logger}
}

// ImportResult summarizes an import.
type ImportResult struct {
	PlayerID     string
	OwnedCrew    int
	UnownedCrew  int
	Collections  int
	CatalogFound bool

	// Rows stored for the player after the import.
	StoredCrew        int
	StoredCollections int
}

// RosterSyncKey is the sync metadata key holding a player's last roster import.
func RosterSyncKey(playerID string) string {
	return playerID + "_roster_last_sync"
}

// CatalogSyncKey is the sync metadata key holding a player's last catalog import.
func CatalogSyncKey(playerID string) string {
	return playerID + "_catalog_last_sync"
}

// ImportPlayerFile imports a player export, replacing the stored roster.
func (s *Syncer) ImportPlayerFile(ctx context.Context, path string) (*ImportResult, error) {
	pd, err := readPlayer(path)
	if err != nil {
		return nil, err
	}
	if err := s.storePlayer(ctx, pd); err != nil {
		return nil, err
	}
	res := &ImportResult{
		PlayerID:    pd.ID,
		OwnedCrew:   len(pd.Crew),
		UnownedCrew: len(pd.UnownedCrew),
	}
	if err := s.countStored(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ImportCatalogFile imports a collection catalog for an already stored player.
func (s *Syncer) ImportCatalogFile(ctx context.Context, playerID, path string) (int, error) {
	cols, err := readCatalog(path)
	if err != nil {
		return 0, err
	}
	if err := s.storeCatalog(ctx, playerID, cols); err != nil {
		return 0, err
	}
	return len(cols), nil
}

// ImportSnapshot parses a player export and, if catalogPath is set, a
// catalog export in parallel, then stores both.
func (s *Syncer) ImportSnapshot(ctx context.Context, playerPath, catalogPath string) (*ImportResult, error) {
	var pd *collections.PlayerData
	var cols []collections.Collection

	var g errgroup.Group
	g.Go(func() error {
		var err error
		pd, err = readPlayer(playerPath)
		return err
	})
	if catalogPath != "" {
		g.Go(func() error {
			var err error
			cols, err = readCatalog(catalogPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.storePlayer(ctx, pd); err != nil {
		return nil, err
	}
	res := &ImportResult{
		PlayerID:    pd.ID,
		OwnedCrew:   len(pd.Crew),
		UnownedCrew: len(pd.UnownedCrew),
	}
	if catalogPath != "" {
		if err := s.storeCatalog(ctx, pd.ID, cols); err != nil {
			return nil, err
		}
		res.Collections = len(cols)
		res.CatalogFound = true
	}
	if err := s.countStored(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// countStored fills in the stored row counts of an import.
func (s *Syncer) countStored(ctx context.Context, res *ImportResult) error {
	crew, err := db.NewCrewStore(s.db).CountCrew(ctx, res.PlayerID)
	if err != nil {
		return err
	}
	cols, err := db.NewCollectionStore(s.db).CountCollections(ctx, res.PlayerID)
	if err != nil {
		return err
	}
	res.StoredCrew = crew
	res.StoredCollections = cols
	return nil
}

// ImportPricesFile replaces the stored honor price tables.
func (s *Syncer) ImportPricesFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	prices, err := ParsePrices(data)
	if err != nil {
		return fmt.Errorf("parsing prices: %w", err)
	}

	store := db.NewPriceStore(s.db)
	if len(prices.Normal) > 0 {
		if err := store.SetPrices(ctx, collections.CostModeNormal, prices.Normal); err != nil {
			return err
		}
	}
	if len(prices.Sale) > 0 {
		if err := store.SetPrices(ctx, collections.CostModeSale, prices.Sale); err != nil {
			return err
		}
	}
	s.logger.Info("imported honor prices", "normal", len(prices.Normal), "sale", len(prices.Sale))
	return nil
}

func readPlayer(path string) (*collections.PlayerData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading player file: %w", err)
	}
	pd, err := ParsePlayer(data)
	if err != nil {
		return nil, fmt.Errorf("parsing player file %s: %w", path, err)
	}
	return pd, nil
}

func readCatalog(path string) ([]collections.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	cols, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	return cols, nil
}

func (s *Syncer) storePlayer(ctx context.Context, pd *collections.PlayerData) error {
	if err := db.NewPlayerStore(s.db).UpsertPlayer(ctx, pd.ID, pd.Name, pd.Honor); err != nil {
		return err
	}
	if err := db.NewCrewStore(s.db).ReplaceRoster(ctx, pd.ID, pd.Crew, pd.UnownedCrew); err != nil {
		return fmt.Errorf("storing roster: %w", err)
	}

	// Update sync metadata
	if err := s.db.SetSyncMetadata(ctx, RosterSyncKey(pd.ID), time.Now().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if err := s.db.SetSyncMetadata(ctx, pd.ID+"_crew_count", strconv.Itoa(len(pd.Crew)+len(pd.UnownedCrew))); err != nil {
		return err
	}

	s.logger.Info("imported roster", "player", pd.ID, "owned", len(pd.Crew), "unowned", len(pd.UnownedCrew))
	return nil
}

func (s *Syncer) storeCatalog(ctx context.Context, playerID string, cols []collections.Collection) error {
	p, err := db.NewPlayerStore(s.db).GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("player %s not imported", playerID)
	}

	if err := db.NewCollectionStore(s.db).ReplaceCatalog(ctx, playerID, cols); err != nil {
		return fmt.Errorf("storing catalog: %w", err)
	}

	if err := s.db.SetSyncMetadata(ctx, CatalogSyncKey(playerID), time.Now().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	s.logger.Info("imported catalog", "player", playerID, "collections", len(cols))
	return nil
}
