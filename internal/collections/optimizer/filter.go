package optimizer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// CheckCommonFilter applies the generic crew filters. Owned filter values
// listed in ignore are not checked here.
func CheckCommonFilter(props collections.FilterProps, c *collections.Crew, ignore ...string) bool {
	if len(props.RarityFilter) > 0 && !slices.Contains(props.RarityFilter, c.MaxRarity) {
		return false
	}

	of := props.OwnedFilter
	if of == "" || slices.Contains(ignore, of) {
		return true
	}
	switch of {
	case collections.OwnedFilterUnowned:
		return !c.Have
	case collections.OwnedFilterOwned:
		return c.Have
	case collections.OwnedFilterFullyFused:
		return c.Have && c.OwnedRarity() >= c.MaxRarity
	case collections.OwnedFilterNotFullyFused:
		return c.Have && c.OwnedRarity() < c.MaxRarity
	}
	return true
}

// passesOwnedFilter applies the ownership rule of group construction. Unowned
// crew are only considered when the pool was widened by a collections filter
// or a search.
func passesOwnedFilter(c *collections.Crew, ownedFilter string, widened bool) bool {
	if !widened {
		return c.Have
	}
	if ownedFilter == collections.OwnedFilterUnowned && c.Have {
		return false
	}
	if strings.HasPrefix(ownedFilter, collections.OwnedFilterOwned) && !c.Have {
		return false
	}
	return true
}

// CompareRewards orders two collection sets by how much of the filtered
// rewards they grant, larger first. With short set only distinct reward
// kinds are counted.
func CompareRewards(filter collections.MapFilter, a, b []*collections.Collection, short bool) int {
	return cmp.Compare(rewardScore(filter, b, short), rewardScore(filter, a, short))
}

func rewardScore(filter collections.MapFilter, cols []*collections.Collection, short bool) int {
	if len(filter.RewardFilter) == 0 {
		return 0
	}
	kinds := make(map[string]bool)
	total := 0
	for _, col := range cols {
		if col == nil {
			continue
		}
		for _, rw := range col.Milestone.Rewards {
			if !slices.Contains(filter.RewardFilter, rw.Symbol) {
				continue
			}
			kinds[rw.Symbol] = true
			total += rw.Quantity
		}
	}
	if short {
		return len(kinds)
	}
	return total
}
