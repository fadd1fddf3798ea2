package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/internal/collections/optimizer"
	"github.com/rsned/stt-collections-server/pkg/collections"
)

// CollectionLookup executes the collection_lookup tool logic.
func (e *Engine) CollectionLookup(ctx context.Context, req collections.CollectionLookupRequest) (*collections.CollectionLookupResponse, error) {
	resp := &collections.CollectionLookupResponse{}

	snap, err := e.loadSnapshot(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}

	// If search term provided, search first
	if req.Search != "" {
		hits, err := e.collections.SearchCollections(ctx, req.PlayerID, req.Search, 10)
		if err != nil {
			return nil, err
		}
		resp.SearchResults = hits

		// If exactly one result and nothing else named, use it
		if len(hits) == 1 && req.CollectionID == 0 && req.Name == "" {
			req.CollectionID = hits[0].CollectionID
		}
	}

	var col *collections.Collection
	switch {
	case req.CollectionID != 0:
		col, err = e.collections.GetCollection(ctx, req.PlayerID, req.CollectionID)
	case req.Name != "":
		col, err = e.collections.GetCollectionByName(ctx, req.PlayerID, req.Name)
	default:
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	if col == nil {
		return resp, nil
	}
	resp.Collection = col
	resp.Remaining = remaining(col)

	costs, err := e.costFunc(ctx)
	if err != nil {
		return nil, err
	}
	sale := req.CostMode == collections.CostModeSale

	// Owned crew still able to count toward the collection, cheapest first.
	var crew []*collections.Crew
	for i := range snap.player.Crew {
		c := &snap.player.Crew[i]
		if c.Have && !c.IsImmortalized() && c.InCollection(col.Name) {
			crew = append(crew, c)
		}
	}
	slices.SortStableFunc(crew, func(a, b *collections.Crew) int {
		if r := cmp.Compare(costs.CrewCost(a, sale), costs.CrewCost(b, sale)); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
	resp.Crew = crew
	resp.NeededStars = optimizer.NeededStars(crew, col.Needed)
	resp.NeededCost = optimizer.StarCost(costs, crew, col.Needed, sale)

	return resp, nil
}

// CrewCollections executes the crew_collections tool logic.
func (e *Engine) CrewCollections(ctx context.Context, req collections.CrewCollectionsRequest) (*collections.CrewCollectionsResponse, error) {
	if _, err := e.loadSnapshot(ctx, req.PlayerID); err != nil {
		return nil, err
	}

	c, err := e.crew.FindCrew(ctx, req.PlayerID, req.Symbol)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCrewNotFound, req.Symbol)
	}

	cols, err := e.collections.CollectionsForCrew(ctx, req.PlayerID, req.Symbol)
	if err != nil {
		return nil, err
	}

	resp := &collections.CrewCollectionsResponse{
		Symbol:      c.Symbol,
		Name:        c.Name,
		Collections: make([]collections.CrewCollectionInfo, 0, len(cols)),
	}
	for i := range cols {
		resp.Collections = append(resp.Collections, collections.CrewCollectionInfo{
			Collection: cols[i],
			Remaining:  remaining(&cols[i]),
			Claimable:  cols[i].Claimable(),
		})
	}
	return resp, nil
}

// ListPlayers executes the player_list tool logic.
func (e *Engine) ListPlayers(ctx context.Context) (*collections.PlayerListResponse, error) {
	players, err := e.players.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	resp := &collections.PlayerListResponse{Players: make([]collections.PlayerInfo, 0, len(players))}
	for _, p := range players {
		resp.Players = append(resp.Players, collections.PlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			Honor:     p.Honor,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return resp, nil
}
