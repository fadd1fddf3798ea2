// Package engine contains the collection query business logic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rsned/stt-collections-server/internal/collections/db"
	"github.com/rsned/stt-collections-server/internal/collections/optimizer"
	"github.com/rsned/stt-collections-server/internal/collections/sync"
	"github.com/rsned/stt-collections-server/pkg/collections"
)

// DefaultCacheSize is the number of player snapshots kept in memory.
const DefaultCacheSize = 16

var (
	// ErrPlayerNotFound is returned when no roster is stored for a player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrCrewNotFound is returned when a crew symbol is not on a player's roster.
	ErrCrewNotFound = errors.New("crew not found")
)

// Options configures an Engine.
type Options struct {
	CacheSize       int
	Tuning          optimizer.Tuning
	SaleDiscountPct int
	Logger          *slog.Logger
}

// Engine is the main query engine for collection operations.
type Engine struct {
	db          *db.DB
	players     *db.PlayerStore
	crew        *db.CrewStore
	collections *db.CollectionStore
	prices      *db.PriceStore

	snapshots       *lru.Cache[string, *snapshot]
	tuning          optimizer.Tuning
	saleDiscountPct int
	logger          *slog.Logger
}

// snapshot is a player's roster and catalog as of one import.
type snapshot struct {
	player  *collections.PlayerData
	catalog []collections.Collection
	stamp   string
}

// New creates a new Engine with the given database stores.
func New(database *db.DB, opts Options) (*Engine, error) {
	// Apply defaults
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Tuning.SubsetCap <= 0 || opts.Tuning.SubsetCapTrigger <= 0 {
		opts.Tuning = optimizer.DefaultTuning()
	}
	if opts.SaleDiscountPct <= 0 {
		opts.SaleDiscountPct = optimizer.DefaultSaleDiscountPct
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache, err := lru.New[string, *snapshot](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	return &Engine{
		db:              database,
		players:         db.NewPlayerStore(database),
		crew:            db.NewCrewStore(database),
		collections:     db.NewCollectionStore(database),
		prices:          db.NewPriceStore(database),
		snapshots:       cache,
		tuning:          opts.Tuning,
		saleDiscountPct: opts.SaleDiscountPct,
		logger:          opts.Logger,
	}, nil
}

// Invalidate drops a player's cached snapshot.
func (e *Engine) Invalidate(playerID string) {
	e.snapshots.Remove(playerID)
}

// DeletePlayer removes a player's stored data and cached snapshot.
func (e *Engine) DeletePlayer(ctx context.Context, playerID string) error {
	p, err := e.players.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err := e.players.DeletePlayer(ctx, playerID); err != nil {
		return err
	}
	e.Invalidate(playerID)
	e.logger.Info("deleted player", "player", playerID)
	return nil
}

// importStamp identifies the latest import of a player's data.
func (e *Engine) importStamp(ctx context.Context, playerID string) (string, error) {
	roster, err := e.db.GetSyncMetadata(ctx, sync.RosterSyncKey(playerID))
	if err != nil {
		return "", err
	}
	catalog, err := e.db.GetSyncMetadata(ctx, sync.CatalogSyncKey(playerID))
	if err != nil {
		return "", err
	}
	return roster + "|" + catalog, nil
}

// loadSnapshot returns the player's roster and catalog, reloading them
// when a newer import has been recorded.
func (e *Engine) loadSnapshot(ctx context.Context, playerID string) (*snapshot, error) {
	stamp, err := e.importStamp(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if snap, ok := e.snapshots.Get(playerID); ok && snap.stamp == stamp {
		return snap, nil
	}

	player, err := e.players.LoadPlayerData(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	catalog, err := e.collections.GetCatalog(ctx, playerID)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{player: player, catalog: catalog, stamp: stamp}
	e.snapshots.Add(playerID, snap)
	e.logger.Debug("loaded player snapshot", "player", playerID, "crew", len(player.Crew), "collections", len(catalog))
	return snap, nil
}

// costFunc builds the crew valuation from stored honor prices, falling back
// to the default tables.
func (e *Engine) costFunc(ctx context.Context) (*optimizer.StarCoster, error) {
	standard, err := e.prices.GetPrices(ctx, collections.CostModeNormal)
	if err != nil {
		return nil, err
	}
	if len(standard) == 0 {
		standard = optimizer.DefaultStandardPrices
	}
	sale, err := e.prices.GetPrices(ctx, collections.CostModeSale)
	if err != nil {
		return nil, err
	}
	return optimizer.NewStarCoster(standard, sale, e.saleDiscountPct), nil
}

// remaining is the number of crew still missing for the next milestone.
func remaining(col *collections.Collection) int {
	return max(col.Milestone.Goal.Int()-col.Owned, 0)
}
