package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// PlayerStore handles player data access.
type PlayerStore struct {
	db *DB
}

// NewPlayerStore creates a new PlayerStore.
func NewPlayerStore(db *DB) *PlayerStore {
	return &PlayerStore{db: db}
}

// PlayerSummary is a stored player without roster.
type PlayerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Honor     int    `json:"honor"`
	UpdatedAt string `json:"updated_at"`
}

// UpsertPlayer inserts or updates a player's identity and honor balance.
func (s *PlayerStore) UpsertPlayer(ctx context.Context, id, name string, honor int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, honor, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			honor = excluded.honor,
			updated_at = excluded.updated_at
	`, id, name, honor)
	if err != nil {
		return fmt.Errorf("upserting player %s: %w", id, err)
	}
	return nil
}

// GetPlayer retrieves a player. Returns nil if not found.
func (s *PlayerStore) GetPlayer(ctx context.Context, id string) (*PlayerSummary, error) {
	p := &PlayerSummary{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, honor, updated_at FROM players WHERE id = ?
	`, id).Scan(&p.Name, &p.Honor, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// ListPlayers lists all stored players by ID.
func (s *PlayerStore) ListPlayers(ctx context.Context) ([]PlayerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, honor, updated_at FROM players ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var players []PlayerSummary
	for rows.Next() {
		var p PlayerSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Honor, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// LoadPlayerData assembles the full roster of a player. Returns nil if the
// player is not stored.
func (s *PlayerStore) LoadPlayerData(ctx context.Context, id string) (*collections.PlayerData, error) {
	p, err := s.GetPlayer(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}

	owned, unowned, err := NewCrewStore(s.db).GetRoster(ctx, id)
	if err != nil {
		return nil, err
	}

	return &collections.PlayerData{
		ID:          p.ID,
		Name:        p.Name,
		Honor:       p.Honor,
		Crew:        owned,
		UnownedCrew: unowned,
	}, nil
}

// DeletePlayer removes a player. Roster and catalog rows cascade.
func (s *PlayerStore) DeletePlayer(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting player %s: %w", id, err)
	}
	return nil
}
