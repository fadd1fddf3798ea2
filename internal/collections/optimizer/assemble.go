package optimizer

import (
	"cmp"
	"slices"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// assembleGroups turns scored links into optimized groups, dropping groups
// with nothing that completes, and orders them by non-fulfilling distance.
func (r *run) assembleGroups(groups []*collections.CollectionGroup, links map[string][]*collections.CollectionGroup, order []string) []*collections.OptimizedGroup {
	byName := make(map[string]*collections.CollectionGroup, len(groups))
	for _, g := range groups {
		if _, ok := byName[g.Collection.Name]; !ok {
			byName[g.Collection.Name] = g
		}
	}

	var out []*collections.OptimizedGroup
	for _, name := range order {
		ls := links[name]
		if len(ls) == 0 || !slices.ContainsFunc(ls, func(l *collections.CollectionGroup) bool { return l.Completes }) {
			continue
		}
		g := byName[name]

		var linked []*collections.Crew
		appearances := make(map[string]int)
		for _, l := range ls {
			linked = append(linked, l.Crew...)
			for _, c := range l.Crew {
				appearances[c.Symbol]++
			}
		}

		unique := dedupeCrew(append(slices.Clone(linked), g.Crew...))

		var common []*collections.Crew
		for _, c := range dedupeCrew(linked) {
			if appearances[c.Symbol] > 1 {
				common = append(common, c)
			}
		}

		favorites := r.cfg.FilterProps.Favorited
		slices.SortStableFunc(unique, func(a, b *collections.Crew) int {
			if favorites && a.Favorite != b.Favorite {
				if a.Favorite {
					return -1
				}
				return 1
			}
			if c := cmp.Compare(r.costs.CrewCost(a, r.sale), r.costs.CrewCost(b, r.sale)); c != 0 {
				return c
			}
			return cmp.Compare(appearances[b.Symbol], appearances[a.Symbol])
		})

		out = append(out, &collections.OptimizedGroup{
			Name:          name,
			Collection:    g.Collection,
			Links:         ls,
			UniqueCrew:    unique,
			CommonCrew:    common,
			NeededStars:   NeededStars(unique, 0),
			NeededCost:    g.NeededCost,
			UniqueCost:    StarCost(r.costs, unique, 0, r.sale),
			NonFulfilling: len(unique) - len(common),
		})
	}

	slices.SortStableFunc(out, compareDistance)
	return out
}

// compareDistance orders groups by non-fulfilling distance: non-negative
// before negative, zero first, then nearest; then by link count descending
// and unique cost ascending.
func compareDistance(a, b *collections.OptimizedGroup) int {
	da, db := a.NonFulfilling, b.NonFulfilling
	var c int
	switch {
	case da >= 0 && db >= 0:
		if da != db && da == 0 {
			return -1
		}
		if da != db && db == 0 {
			return 1
		}
		c = cmp.Compare(da, db)
	case da >= 0:
		return -1
	case db >= 0:
		return 1
	default:
		c = cmp.Compare(db, da)
	}
	if c != 0 {
		return c
	}
	if c := cmp.Compare(len(b.Links), len(a.Links)); c != 0 {
		return c
	}
	return cmp.Compare(a.UniqueCost, b.UniqueCost)
}
