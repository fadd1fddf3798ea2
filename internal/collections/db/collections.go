package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// CollectionStore handles collection catalog access.
type CollectionStore struct {
	db *DB
}

// NewCollectionStore creates a new CollectionStore.
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionColumns = `id, name, needed, owned, progress, progress_na, goal, goal_na, claimable_index, total_rewards`

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (collections.Collection, error) {
	var c collections.Collection
	var claimable sql.NullInt64
	err := row.Scan(
		&c.ID, &c.Name, &c.Needed, &c.Owned,
		&c.Progress.Value, &c.Progress.NA,
		&c.Milestone.Goal.Value, &c.Milestone.Goal.NA,
		&claimable, &c.TotalRewards,
	)
	if err != nil {
		return c, err
	}
	if claimable.Valid {
		idx := int(claimable.Int64)
		c.ClaimableMilestoneIndex = &idx
	}
	return c, nil
}

// ReplaceCatalog replaces a player's collection catalog in a transaction.
// The player must already exist.
func (s *CollectionStore) ReplaceCatalog(ctx context.Context, playerID string, cols []collections.Collection) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE player_id = ?`, playerID); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}

		colStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO collections
			(player_id, `+collectionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing collection statement: %w", err)
		}
		defer func() { _ = colStmt.Close() }()

		rewardStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO collection_rewards (player_id, collection_id, position, symbol, type, quantity)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing reward statement: %w", err)
		}
		defer func() { _ = rewardStmt.Close() }()

		for _, c := range cols {
			var claimable sql.NullInt64
			if c.ClaimableMilestoneIndex != nil {
				claimable = sql.NullInt64{Int64: int64(*c.ClaimableMilestoneIndex), Valid: true}
			}
			_, err := colStmt.ExecContext(ctx,
				playerID, c.ID, c.Name, c.Needed, c.Owned,
				c.Progress.Value, c.Progress.NA,
				c.Milestone.Goal.Value, c.Milestone.Goal.NA,
				claimable, c.TotalRewards,
			)
			if err != nil {
				return fmt.Errorf("inserting collection %d: %w", c.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM collection_rewards WHERE player_id = ? AND collection_id = ?`,
				playerID, c.ID,
			); err != nil {
				return fmt.Errorf("clearing rewards for %d: %w", c.ID, err)
			}
			for pos, r := range c.Milestone.Rewards {
				if _, err := rewardStmt.ExecContext(ctx, playerID, c.ID, pos, r.Symbol, r.Type, r.Quantity); err != nil {
					return fmt.Errorf("inserting reward for %d: %w", c.ID, err)
				}
			}
		}

		return nil
	})
}

// GetCatalog returns a player's collections ordered by ID.
func (s *CollectionStore) GetCatalog(ctx context.Context, playerID string) ([]collections.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE player_id = ?
		ORDER BY id
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []collections.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachRewards(ctx, playerID, cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// attachRewards loads milestone rewards into cols.
func (s *CollectionStore) attachRewards(ctx context.Context, playerID string, cols []collections.Collection) error {
	if len(cols) == 0 {
		return nil
	}
	byID := make(map[int]*collections.Collection, len(cols))
	for i := range cols {
		byID[cols[i].ID] = &cols[i]
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection_id, symbol, type, quantity
		FROM collection_rewards
		WHERE player_id = ?
		ORDER BY collection_id, position
	`, playerID)
	if err != nil {
		return fmt.Errorf("querying rewards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int
		var r collections.Reward
		if err := rows.Scan(&id, &r.Symbol, &r.Type, &r.Quantity); err != nil {
			return fmt.Errorf("scanning reward: %w", err)
		}
		if c := byID[id]; c != nil {
			c.Milestone.Rewards = append(c.Milestone.Rewards, r)
		}
	}
	return rows.Err()
}

// GetCollection retrieves one collection by ID. Returns nil if not found.
func (s *CollectionStore) GetCollection(ctx context.Context, playerID string, id int) (*collections.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE player_id = ? AND id = ?
	`, playerID, id)
	return s.one(ctx, playerID, row)
}

// GetCollectionByName retrieves one collection by exact name. Returns nil
// if not found.
func (s *CollectionStore) GetCollectionByName(ctx context.Context, playerID, name string) (*collections.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE player_id = ? AND name = ?
		ORDER BY id
		LIMIT 1
	`, playerID, name)
	return s.one(ctx, playerID, row)
}

func (s *CollectionStore) one(ctx context.Context, playerID string, row *sql.Row) (*collections.Collection, error) {
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	cols := []collections.Collection{c}
	if err := s.attachRewards(ctx, playerID, cols); err != nil {
		return nil, err
	}
	return &cols[0], nil
}

// SearchCollections searches collections by name (case-insensitive partial match).
func (s *CollectionStore) SearchCollections(ctx context.Context, playerID, term string, limit int) ([]collections.CollectionSearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, needed
		FROM collections
		WHERE player_id = ? AND name LIKE ?
		ORDER BY name
		LIMIT ?
	`, playerID, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []collections.CollectionSearchHit
	for rows.Next() {
		var hit collections.CollectionSearchHit
		if err := rows.Scan(&hit.CollectionID, &hit.Name, &hit.Needed); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		results = append(results, hit)
	}

	return results, rows.Err()
}

// CollectionsForCrew returns the catalog collections a crew symbol belongs
// to, by name.
func (s *CollectionStore) CollectionsForCrew(ctx context.Context, playerID, symbol string) ([]collections.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("c.", collectionColumns)+`
		FROM collections c
		WHERE c.player_id = ? AND c.name IN (
			SELECT cc.collection
			FROM crew_collections cc
			JOIN crew cr ON cr.player_id = cc.player_id AND cr.roster = cc.roster AND cr.ordinal = cc.ordinal
			WHERE cr.player_id = ? AND cr.symbol = ?
		)
		ORDER BY c.name
	`, playerID, playerID, symbol)
	if err != nil {
		return nil, fmt.Errorf("querying collections for %s: %w", symbol, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []collections.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachRewards(ctx, playerID, cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// CountCollections returns the size of a player's catalog.
func (s *CollectionStore) CountCollections(ctx context.Context, playerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE player_id = ?`, playerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting collections: %w", err)
	}
	return count, nil
}
