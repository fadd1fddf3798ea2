package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

func TestCompareCrew(t *testing.T) {
	base := func(name string) *collections.Crew {
		return &collections.Crew{Symbol: name, Name: name, Have: true, Rarity: 3, MaxRarity: 4, Level: 50, Equipment: 2}
	}
	o := crewOrder{weights: map[string]int{}}

	tests := []struct {
		name  string
		first *collections.Crew
		then  *collections.Crew
		order crewOrder
	}{
		{
			name:  "search match first",
			first: base("zed"),
			then:  base("amy"),
			order: crewOrder{searches: map[string]bool{"zed": true}},
		},
		{
			name:  "owned before unowned",
			first: base("zed"),
			then:  func() *collections.Crew { c := base("amy"); c.Have = false; return c }(),
			order: o,
		},
		{
			name:  "favorite first when enabled",
			first: func() *collections.Crew { c := base("zed"); c.Favorite = true; return c }(),
			then:  base("amy"),
			order: crewOrder{favorites: true},
		},
		{
			name:  "higher max rarity first",
			first: func() *collections.Crew { c := base("zed"); c.MaxRarity = 5; return c }(),
			then:  base("amy"),
			order: o,
		},
		{
			name:  "higher fuse ratio first",
			first: func() *collections.Crew { c := base("zed"); c.Rarity = 4; return c }(),
			then:  base("amy"),
			order: o,
		},
		{
			name:  "higher level first",
			first: func() *collections.Crew { c := base("zed"); c.Level = 60; return c }(),
			then:  base("amy"),
			order: o,
		},
		{
			name:  "more equipment first",
			first: func() *collections.Crew { c := base("zed"); c.Equipment = 4; return c }(),
			then:  base("amy"),
			order: o,
		},
		{
			name:  "higher weight first",
			first: base("zed"),
			then:  base("amy"),
			order: crewOrder{weights: map[string]int{"zed": 3, "amy": 1}},
		},
		{
			name:  "name last",
			first: base("amy"),
			then:  base("zed"),
			order: o,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Negative(t, compareCrew(tt.first, tt.then, tt.order))
			assert.Positive(t, compareCrew(tt.then, tt.first, tt.order))
		})
	}
}

func TestCompareCrew_FavoritesIgnoredWhenDisabled(t *testing.T) {
	a := &collections.Crew{Symbol: "a", Name: "a", Have: true, Favorite: true}
	b := &collections.Crew{Symbol: "b", Name: "b", Have: true}
	assert.Negative(t, compareCrew(a, b, crewOrder{}))

	a.Name, b.Name = "z", "y"
	assert.Positive(t, compareCrew(a, b, crewOrder{}))
}

func TestCheckCommonFilter(t *testing.T) {
	fused := &collections.Crew{Have: true, Rarity: 5, MaxRarity: 5}
	partial := &collections.Crew{Have: true, Rarity: 2, MaxRarity: 4}
	unowned := &collections.Crew{MaxRarity: 3}

	props := collections.FilterProps{OwnedFilter: collections.OwnedFilterFullyFused}
	assert.True(t, CheckCommonFilter(props, fused))
	assert.False(t, CheckCommonFilter(props, partial))
	assert.False(t, CheckCommonFilter(props, unowned))

	props.OwnedFilter = collections.OwnedFilterNotFullyFused
	assert.False(t, CheckCommonFilter(props, fused))
	assert.True(t, CheckCommonFilter(props, partial))

	props.OwnedFilter = collections.OwnedFilterUnowned
	assert.False(t, CheckCommonFilter(props, fused))
	assert.True(t, CheckCommonFilter(props, fused, collections.OwnedFilterUnowned))

	props = collections.FilterProps{RarityFilter: []int{3, 4}}
	assert.False(t, CheckCommonFilter(props, fused))
	assert.True(t, CheckCommonFilter(props, partial))
	assert.True(t, CheckCommonFilter(props, unowned))
}

func TestCompareRewards(t *testing.T) {
	rich := &collections.Collection{Name: "Rich", Milestone: collections.Milestone{Rewards: []collections.Reward{
		{Symbol: "honor", Quantity: 500},
		{Symbol: "honor", Quantity: 100},
	}}}
	varied := &collections.Collection{Name: "Varied", Milestone: collections.Milestone{Rewards: []collections.Reward{
		{Symbol: "honor", Quantity: 10},
		{Symbol: "merits", Quantity: 10},
	}}}
	filter := collections.MapFilter{RewardFilter: []string{"honor", "merits"}}

	one := []*collections.Collection{rich}
	two := []*collections.Collection{varied}

	assert.Negative(t, CompareRewards(filter, one, two, false))
	assert.Positive(t, CompareRewards(filter, one, two, true))
	assert.Zero(t, CompareRewards(collections.MapFilter{}, one, two, false))
}
