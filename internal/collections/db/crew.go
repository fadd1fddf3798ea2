package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// Roster names stored in the crew table.
const (
	RosterOwned   = "owned"
	RosterUnowned = "unowned"
)

// CrewStore handles roster data access.
type CrewStore struct {
	db *DB
}

// NewCrewStore creates a new CrewStore.
func NewCrewStore(db *DB) *CrewStore {
	return &CrewStore{db: db}
}

type crewKey struct {
	roster  string
	ordinal int
}

// ReplaceRoster replaces both roster lists of a player in a transaction.
// The player must already exist.
func (s *CrewStore) ReplaceRoster(ctx context.Context, playerID string, owned, unowned []collections.Crew) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM crew WHERE player_id = ?`, playerID); err != nil {
			return fmt.Errorf("clearing roster: %w", err)
		}

		crewStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO crew
			(player_id, roster, ordinal, symbol, name, have, favorite, immortal,
			 rarity, highest_owned_rarity, max_rarity, level, equipment_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing crew statement: %w", err)
		}
		defer func() { _ = crewStmt.Close() }()

		colStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO crew_collections (player_id, roster, ordinal, position, collection)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing crew collection statement: %w", err)
		}
		defer func() { _ = colStmt.Close() }()

		insert := func(roster string, list []collections.Crew) error {
			for i, c := range list {
				_, err := crewStmt.ExecContext(ctx,
					playerID, roster, i, c.Symbol, c.Name, c.Have, c.Favorite, int(c.Immortal),
					c.Rarity, c.HighestOwnedRarity, c.MaxRarity, c.Level, c.Equipment,
				)
				if err != nil {
					return fmt.Errorf("inserting crew %s: %w", c.Symbol, err)
				}
				for pos, col := range c.Collections {
					if _, err := colStmt.ExecContext(ctx, playerID, roster, i, pos, col); err != nil {
						return fmt.Errorf("inserting collection %q for %s: %w", col, c.Symbol, err)
					}
				}
			}
			return nil
		}

		if err := insert(RosterOwned, owned); err != nil {
			return err
		}
		return insert(RosterUnowned, unowned)
	})
}

// GetRoster returns a player's owned and unowned crew lists in stored order.
func (s *CrewStore) GetRoster(ctx context.Context, playerID string) ([]collections.Crew, []collections.Crew, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT roster, ordinal, symbol, name, have, favorite, immortal,
		       rarity, highest_owned_rarity, max_rarity, level, equipment_count
		FROM crew
		WHERE player_id = ?
		ORDER BY roster, ordinal
	`, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var owned, unowned []collections.Crew
	index := make(map[crewKey]*collections.Crew)
	var keys []crewKey
	for rows.Next() {
		var k crewKey
		var c collections.Crew
		var immortal int
		if err := rows.Scan(&k.roster, &k.ordinal, &c.Symbol, &c.Name, &c.Have, &c.Favorite, &immortal,
			&c.Rarity, &c.HighestOwnedRarity, &c.MaxRarity, &c.Level, &c.Equipment); err != nil {
			return nil, nil, fmt.Errorf("scanning crew: %w", err)
		}
		c.Immortal = collections.CompletionState(immortal)
		if k.roster == RosterUnowned {
			unowned = append(unowned, c)
		} else {
			owned = append(owned, c)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// Index only after the slices stop growing.
	oi, ui := 0, 0
	for _, k := range keys {
		if k.roster == RosterUnowned {
			index[k] = &unowned[ui]
			ui++
		} else {
			index[k] = &owned[oi]
			oi++
		}
	}

	if err := s.loadCollections(ctx, playerID, index); err != nil {
		return nil, nil, err
	}
	return owned, unowned, nil
}

func (s *CrewStore) loadCollections(ctx context.Context, playerID string, index map[crewKey]*collections.Crew) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT roster, ordinal, collection
		FROM crew_collections
		WHERE player_id = ?
		ORDER BY roster, ordinal, position
	`, playerID)
	if err != nil {
		return fmt.Errorf("querying crew collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var k crewKey
		var name string
		if err := rows.Scan(&k.roster, &k.ordinal, &name); err != nil {
			return fmt.Errorf("scanning crew collection: %w", err)
		}
		if c := index[k]; c != nil {
			c.Collections = append(c.Collections, name)
		}
	}
	return rows.Err()
}

// FindCrew returns the first roster record of a symbol, owned crew before
// unowned. Returns nil if not found.
func (s *CrewStore) FindCrew(ctx context.Context, playerID, symbol string) (*collections.Crew, error) {
	var k crewKey
	var c collections.Crew
	var immortal int
	err := s.db.QueryRowContext(ctx, `
		SELECT roster, ordinal, symbol, name, have, favorite, immortal,
		       rarity, highest_owned_rarity, max_rarity, level, equipment_count
		FROM crew
		WHERE player_id = ? AND symbol = ?
		ORDER BY roster, ordinal
		LIMIT 1
	`, playerID, symbol).Scan(&k.roster, &k.ordinal, &c.Symbol, &c.Name, &c.Have, &c.Favorite, &immortal,
		&c.Rarity, &c.HighestOwnedRarity, &c.MaxRarity, &c.Level, &c.Equipment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying crew %s: %w", symbol, err)
	}
	c.Immortal = collections.CompletionState(immortal)

	if err := s.loadCollections(ctx, playerID, map[crewKey]*collections.Crew{k: &c}); err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCrew returns the number of stored crew records of a player.
func (s *CrewStore) CountCrew(ctx context.Context, playerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crew WHERE player_id = ?`, playerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting crew: %w", err)
	}
	return count, nil
}
