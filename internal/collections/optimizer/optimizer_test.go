package optimizer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

func ownedCrew(symbol string, rarity, maxRarity int, cols ...string) collections.Crew {
	return collections.Crew{
		Symbol:      symbol,
		Name:        symbol,
		Collections: cols,
		Have:        true,
		Immortal:    collections.CompletionNone,
		Rarity:      rarity,
		MaxRarity:   maxRarity,
		Level:       100,
	}
}

func testCollection(id int, name string, needed int) collections.Collection {
	idx := 0
	return collections.Collection{
		ID:                      id,
		Name:                    name,
		Needed:                  needed,
		Owned:                   10,
		Milestone:               collections.Milestone{Goal: collections.Count{Value: 20}},
		ClaimableMilestoneIndex: &idx,
		TotalRewards:            1,
	}
}

func testConfig(crew []collections.Crew, cols ...collections.Collection) Config {
	symbols := make([]string, len(crew))
	for i, c := range crew {
		symbols[i] = c.Symbol
	}
	return Config{
		PlayerData: collections.PlayerData{
			ID:    "player-1",
			Honor: 1000000,
			Crew:  crew,
		},
		PlayerCollections: cols,
		CollectionCrew:    symbols,
		MatchMode:         collections.MatchNormal,
	}
}

// pairConfig has two collections with equal thresholds sharing all three crew.
func pairConfig() Config {
	return testConfig(
		[]collections.Crew{
			ownedCrew("kirk", 3, 5, "Alpha", "Beta"),
			ownedCrew("spock", 3, 5, "Alpha", "Beta"),
			ownedCrew("mccoy", 3, 5, "Alpha", "Beta"),
		},
		testCollection(1, "Alpha", 3),
		testCollection(2, "Beta", 3),
	)
}

// fanConfig has one collection X needing four crew, reachable through two
// smaller collections Y and Z with differently priced crew.
func fanConfig() Config {
	return testConfig(
		[]collections.Crew{
			ownedCrew("a", 1, 5, "X", "Y"),
			ownedCrew("b", 1, 5, "X", "Y"),
			ownedCrew("c", 4, 5, "X", "Z"),
			ownedCrew("d", 4, 5, "X", "Z"),
			ownedCrew("e", 5, 5, "X"),
		},
		testCollection(1, "X", 4),
		testCollection(2, "Y", 2),
		testCollection(3, "Z", 2),
	)
}

func TestOptimize_EmptyInput(t *testing.T) {
	res := New().Optimize(Config{})
	require.NotNil(t, res)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Maps)
	assert.Empty(t, res.CostMap)
}

func TestOptimize_SingleCollectionHasNoLinks(t *testing.T) {
	cfg := testConfig(
		[]collections.Crew{
			ownedCrew("kirk", 3, 5, "Alpha"),
			ownedCrew("spock", 3, 5, "Alpha"),
		},
		testCollection(1, "Alpha", 2),
	)

	res := New().Optimize(cfg)
	assert.Empty(t, res.Groups)
	require.Len(t, res.Maps, 1)
	assert.Equal(t, "Alpha", res.Maps[0].Collection.Name)
}

func TestOptimize_EqualThresholdPair(t *testing.T) {
	res := New().Optimize(pairConfig())

	require.Len(t, res.Groups, 2)
	g := res.Groups[0]
	assert.Equal(t, "Alpha", g.Name)
	require.Len(t, g.Combos, 1)

	combo := g.Combos[0]
	assert.Equal(t, []string{"* Beta"}, combo.Names)
	assert.True(t, combo.Primary())
	assert.Equal(t, 3, combo.Count)
	assert.ElementsMatch(t, []string{"kirk", "spock", "mccoy"}, combo.Crew)

	assert.Equal(t, []string{"* Alpha"}, res.Groups[1].Combos[0].Names)
}

func TestOptimize_SearchWithoutMatchYieldsNothing(t *testing.T) {
	cfg := pairConfig()
	cfg.FilterProps.SearchFilter = "Nobody; "

	res := New().Optimize(cfg)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Maps)
}

func TestOptimize_SearchKeepsMatchingGroups(t *testing.T) {
	cfg := pairConfig()
	cfg.FilterProps.SearchFilter = "spock"

	res := New().Optimize(cfg)
	require.Len(t, res.Groups, 2)
	for _, g := range res.Groups {
		require.NotEmpty(t, g.Combos)
		assert.Len(t, g.ComboCost, len(g.Combos))
	}
	assert.Len(t, res.Maps, 2)
}

func TestOptimize_UnderThresholdCombo(t *testing.T) {
	cfg := testConfig(
		[]collections.Crew{
			ownedCrew("a", 3, 5, "X", "Y"),
			ownedCrew("b", 3, 5, "X", "Y"),
			ownedCrew("c", 3, 5, "X"),
			ownedCrew("d", 3, 5, "X"),
		},
		testCollection(1, "X", 4),
		testCollection(2, "Y", 2),
	)

	res := New().Optimize(cfg)
	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, "X", g.Name)
	require.Len(t, g.Combos, 1)
	assert.Equal(t, []string{"Y"}, g.Combos[0].Names)
	assert.Equal(t, 2, g.Combos[0].Count)

	cfg.MatchMode = collections.MatchExactOnly
	res = New().Optimize(cfg)
	assert.Empty(t, res.Groups)
}

func TestOptimize_ByCostOrdering(t *testing.T) {
	cfg := fanConfig()
	cfg.PlayerData.Crew = append(cfg.PlayerData.Crew,
		ownedCrew("p1", 3, 5, "P", "Q"),
		ownedCrew("p2", 3, 5, "P", "Q"),
	)
	cfg.CollectionCrew = append(cfg.CollectionCrew, "p1", "p2")
	cfg.PlayerCollections = append(cfg.PlayerCollections,
		testCollection(4, "P", 2),
		testCollection(5, "Q", 2),
	)
	cfg.ByCost = true

	res := New().Optimize(cfg)
	require.Len(t, res.Groups, 3)

	for _, g := range res.Groups {
		assert.Len(t, g.ComboCost, len(g.Combos))
		assert.True(t, slices.IsSorted(g.ComboCost), "combo costs of %s not ascending: %v", g.Name, g.ComboCost)
	}
	for i := 1; i < len(res.Groups); i++ {
		assert.LessOrEqual(t, res.Groups[i-1].ComboCost[0], res.Groups[i].ComboCost[0])
	}

	x := res.Groups[2]
	assert.Equal(t, "X", x.Name)
	assert.Equal(t, []int{18000, 27000, 30000}, x.ComboCost)
	assert.Equal(t, []string{"Z"}, x.Combos[0].Names)
	assert.Equal(t, []string{"* Y", "Z"}, x.Combos[2].Names)
}

func TestOptimize_DefaultOrderingKeepsThresholdSizedCombos(t *testing.T) {
	res := New().Optimize(fanConfig())
	require.Len(t, res.Groups, 1)

	g := res.Groups[0]
	require.Len(t, g.Combos, 3)
	assert.Equal(t, []string{"* Y", "Z"}, g.Combos[0].Names)
	assert.Equal(t, 4, g.Combos[0].Count)
	for _, c := range g.Combos[1:] {
		assert.Equal(t, 2, c.Count)
	}
}

func TestOptimize_CostMapSignaturesUnique(t *testing.T) {
	o := New()
	for _, cfg := range []Config{pairConfig(), fanConfig(), fanConfig()} {
		res := o.Optimize(cfg)
		seen := make(map[string]bool)
		for _, e := range res.CostMap {
			key := e.Collection + "|" + e.Signature()
			assert.False(t, seen[key], "duplicate cost entry %s", key)
			seen[key] = true
			assert.NotEmpty(t, e.Crew)
		}
	}
}

func TestOptimize_GroupNeverNamesItself(t *testing.T) {
	for _, cfg := range []Config{pairConfig(), fanConfig()} {
		res := New().Optimize(cfg)
		for _, g := range res.Groups {
			for _, l := range g.Links {
				assert.NotEqual(t, g.Name, l.Collection.Name)
				assert.True(t, l.Completes)
			}
			for _, c := range g.Combos {
				assert.NotContains(t, c.Collections(), g.Name)
				assert.NotZero(t, c.Count)
			}
		}
	}
}

func TestOptimize_ImmortalizedCrewExcluded(t *testing.T) {
	cfg := pairConfig()
	cfg.PlayerData.Crew[0].Immortal = collections.CompletionImmortalized

	res := New().Optimize(cfg)
	for _, m := range res.Maps {
		for _, c := range m.Crew {
			assert.NotEqual(t, "kirk", c.Symbol)
		}
	}
	assert.Empty(t, res.Groups)
}

func TestOptimize_DoesNotMutateRoster(t *testing.T) {
	cfg := fanConfig()
	before := slices.Clone(cfg.PlayerData.Crew)
	beforeCols := slices.Clone(cfg.PlayerCollections)

	New().Optimize(cfg)

	assert.Equal(t, before, cfg.PlayerData.Crew)
	assert.Equal(t, beforeCols, cfg.PlayerCollections)
}

func TestOptimize_CollectionsFilterWidensToUnowned(t *testing.T) {
	cfg := pairConfig()
	unowned := ownedCrew("uhura", 0, 5, "Alpha", "Beta")
	unowned.Have = false
	unowned.Immortal = collections.CompletionUnowned
	cfg.PlayerData.UnownedCrew = []collections.Crew{unowned}
	cfg.CollectionCrew = append(cfg.CollectionCrew, "uhura")

	res := New().Optimize(cfg)
	for _, m := range res.Maps {
		assert.Len(t, m.Crew, 3)
	}

	cfg.FilterProps.MapFilter.CollectionsFilter = []int{1}
	res = New().Optimize(cfg)
	require.Len(t, res.Maps, 1)
	assert.Equal(t, "Alpha", res.Maps[0].Collection.Name)
	assert.Len(t, res.Maps[0].Crew, 4)
	assert.Equal(t, "uhura", res.Maps[0].Crew[3].Symbol)
}
