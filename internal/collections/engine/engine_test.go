package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/stt-collections-server/internal/collections/db"
	"github.com/rsned/stt-collections-server/internal/collections/optimizer"
	"github.com/rsned/stt-collections-server/internal/collections/sync"
	"github.com/rsned/stt-collections-server/pkg/collections"
)

func testdata(name string) string {
	return filepath.Join("..", "sync", "testdata", name)
}

// newTestEngine returns an engine over a database holding player p42.
func newTestEngine(t *testing.T) (*Engine, *db.DB) {
	t.Helper()
	ctx := context.Background()
	database, err := db.OpenAndInit(ctx, filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = sync.NewSyncer(database, nil).ImportSnapshot(ctx, testdata("player.json"), testdata("catalog.json"))
	require.NoError(t, err)

	e, err := New(database, Options{})
	require.NoError(t, err)
	return e, database
}

func TestOptimize(t *testing.T) {
	e, _ := newTestEngine(t)

	resp, err := e.Optimize(context.Background(), collections.OptimizeRequest{PlayerID: "p42"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, 3, resp.QueryStats.CrewConsidered)
	assert.Equal(t, len(resp.Groups), resp.QueryStats.GroupsReturned)
	assert.Equal(t, len(resp.Maps), resp.QueryStats.CollectionsFound)
	assert.GreaterOrEqual(t, resp.QueryStats.ProcessingTimeMs, int64(0))
}

func TestOptimize_UnknownPlayer(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Optimize(context.Background(), collections.OptimizeRequest{PlayerID: "nobody"})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestOptimize_CancelledWait(t *testing.T) {
	e, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := e.Optimize(ctx, collections.OptimizeRequest{PlayerID: "p42"})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		return
	}
	assert.NotEmpty(t, resp.JobID)
}

func TestCollectionLookup(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("search selects single hit", func(t *testing.T) {
		resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", Search: "miss"})
		require.NoError(t, err)
		require.Len(t, resp.SearchResults, 1)
		require.NotNil(t, resp.Collection)
		assert.Equal(t, "Emissary", resp.Collection.Name)

		// kira_major is immortalized and does not count.
		require.Len(t, resp.Crew, 1)
		assert.Equal(t, "sisko_captain", resp.Crew[0].Symbol)
		assert.Equal(t, 0, resp.Remaining)
		assert.Equal(t, 1, resp.NeededStars)
		assert.Equal(t, optimizer.DefaultStandardPrices[5], resp.NeededCost)
	})

	t.Run("by id", func(t *testing.T) {
		resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", CollectionID: 12})
		require.NoError(t, err)
		require.NotNil(t, resp.Collection)
		assert.Equal(t, "Changelings", resp.Collection.Name)
		assert.Empty(t, resp.Crew)
	})

	t.Run("by name", func(t *testing.T) {
		resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", Name: "Emissary"})
		require.NoError(t, err)
		require.NotNil(t, resp.Collection)
		assert.Equal(t, 11, resp.Collection.ID)
	})

	t.Run("no match", func(t *testing.T) {
		resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", Search: "borg"})
		require.NoError(t, err)
		assert.Empty(t, resp.SearchResults)
		assert.Nil(t, resp.Collection)
	})

	t.Run("multiple hits are not selected", func(t *testing.T) {
		resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", Search: "e"})
		require.NoError(t, err)
		assert.Len(t, resp.SearchResults, 2)
		assert.Nil(t, resp.Collection)
	})
}

func TestCollectionLookup_StoredPrices(t *testing.T) {
	e, database := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, sync.NewSyncer(database, nil).ImportPricesFile(ctx, testdata("prices.json")))

	resp, err := e.CollectionLookup(ctx, collections.CollectionLookupRequest{PlayerID: "p42", CollectionID: 11})
	require.NoError(t, err)
	assert.Equal(t, 3100, resp.NeededCost)

	resp, err = e.CollectionLookup(ctx, collections.CollectionLookupRequest{
		PlayerID: "p42", CollectionID: 11, CostMode: collections.CostModeSale,
	})
	require.NoError(t, err)
	assert.Equal(t, 1200, resp.NeededCost)
}

func TestCrewCollections(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	resp, err := e.CrewCollections(ctx, collections.CrewCollectionsRequest{PlayerID: "p42", Symbol: "sisko_captain"})
	require.NoError(t, err)
	assert.Equal(t, "Captain Sisko", resp.Name)
	require.Len(t, resp.Collections, 1)
	assert.Equal(t, "Emissary", resp.Collections[0].Collection.Name)
	assert.True(t, resp.Collections[0].Claimable)

	resp, err = e.CrewCollections(ctx, collections.CrewCollectionsRequest{PlayerID: "p42", Symbol: "odo_constable"})
	require.NoError(t, err)
	require.Len(t, resp.Collections, 1)
	assert.False(t, resp.Collections[0].Claimable)

	_, err = e.CrewCollections(ctx, collections.CrewCollectionsRequest{PlayerID: "p42", Symbol: "garak"})
	assert.ErrorIs(t, err, ErrCrewNotFound)
}

func TestSnapshotCache(t *testing.T) {
	e, database := newTestEngine(t)
	ctx := context.Background()

	first, err := e.loadSnapshot(ctx, "p42")
	require.NoError(t, err)
	again, err := e.loadSnapshot(ctx, "p42")
	require.NoError(t, err)
	assert.Same(t, first, again)

	// A newer import replaces the cached snapshot.
	require.NoError(t, database.SetSyncMetadata(ctx, sync.RosterSyncKey("p42"), time.Now().Add(time.Hour).Format(time.RFC3339Nano)))
	reloaded, err := e.loadSnapshot(ctx, "p42")
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)

	e.Invalidate("p42")
	assert.Equal(t, 0, e.snapshots.Len())
}

func TestDeletePlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.loadSnapshot(ctx, "p42")
	require.NoError(t, err)

	require.NoError(t, e.DeletePlayer(ctx, "p42"))
	assert.Equal(t, 0, e.snapshots.Len())

	// The sync stamps survive the delete, so only the dropped cache entry
	// keeps the player from being served.
	_, err = e.Optimize(ctx, collections.OptimizeRequest{PlayerID: "p42"})
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	assert.ErrorIs(t, e.DeletePlayer(ctx, "p42"), ErrPlayerNotFound)
}

func TestListPlayers(t *testing.T) {
	e, _ := newTestEngine(t)

	resp, err := e.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "p42", resp.Players[0].ID)
	assert.Equal(t, "Captain Sisko", resp.Players[0].Name)
	assert.Equal(t, 12500, resp.Players[0].Honor)
}
