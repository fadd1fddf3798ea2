package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// PriceStore handles honor price data access.
type PriceStore struct {
	db *DB
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(db *DB) *PriceStore {
	return &PriceStore{db: db}
}

// SetPrices replaces the per-star prices of a cost mode.
func (s *PriceStore) SetPrices(ctx context.Context, mode collections.CostMode, prices map[int]int) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM honor_prices WHERE mode = ?`, string(mode)); err != nil {
			return fmt.Errorf("clearing %s prices: %w", mode, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO honor_prices (mode, rarity, price) VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for rarity, price := range prices {
			if _, err := stmt.ExecContext(ctx, string(mode), rarity, price); err != nil {
				return fmt.Errorf("inserting %s price for rarity %d: %w", mode, rarity, err)
			}
		}
		return nil
	})
}

// GetPrices returns the per-star prices of a cost mode, keyed by max rarity.
// An empty map means no prices are stored.
func (s *PriceStore) GetPrices(ctx context.Context, mode collections.CostMode) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rarity, price FROM honor_prices WHERE mode = ?
	`, string(mode))
	if err != nil {
		return nil, fmt.Errorf("querying %s prices: %w", mode, err)
	}
	defer func() { _ = rows.Close() }()

	prices := make(map[int]int)
	for rows.Next() {
		var rarity, price int
		if err := rows.Scan(&rarity, &price); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		prices[rarity] = price
	}

	return prices, rows.Err()
}
