package optimizer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// rankCosts resolves every combo to concrete crew and a cost, merges combos
// that resolve to the same crew, and orders combos and groups.
func (r *run) rankCosts(groups []*collections.OptimizedGroup) ([]*collections.OptimizedGroup, []*collections.CostEntry) {
	var costMap []*collections.CostEntry
	entries := make(map[string][]*collections.CostEntry, len(groups))

	for _, g := range groups {
		ge := r.dedupeEntries(g)
		entries[g.Name] = ge
		costMap = append(costMap, ge...)
	}

	for _, g := range groups {
		ge := slices.Clone(entries[g.Name])
		if r.cfg.ByCost {
			slices.SortStableFunc(ge, func(a, b *collections.CostEntry) int {
				return cmp.Compare(a.Cost, b.Cost)
			})
		} else {
			ge = slices.DeleteFunc(ge, func(e *collections.CostEntry) bool {
				return len(e.Crew) > g.Collection.Needed
			})
			slices.SortStableFunc(ge, func(a, b *collections.CostEntry) int {
				return cmp.Compare(b.Combo.Count, a.Combo.Count)
			})
		}
		g.Combos = make([]collections.Combo, len(ge))
		g.ComboCost = make([]int, len(ge))
		for i, e := range ge {
			g.Combos[i] = e.Combo
			g.ComboCost[i] = e.Cost
		}
	}

	switch {
	case r.cfg.ByCost:
		slices.SortStableFunc(groups, func(a, b *collections.OptimizedGroup) int {
			return cmp.Compare(cheapest(a), cheapest(b))
		})
	case len(r.cfg.FilterProps.MapFilter.RewardFilter) == 0:
		honor := r.cfg.PlayerData.Honor
		slices.SortStableFunc(groups, func(a, b *collections.OptimizedGroup) int {
			return compareEfficiency(a, b, honor)
		})
	}
	return groups, costMap
}

// dedupeEntries resolves a group's combos, keeping one entry per crew
// signature. On a collision the combo naming more collections wins.
func (r *run) dedupeEntries(g *collections.OptimizedGroup) []*collections.CostEntry {
	bySig := make(map[string]*collections.CostEntry)
	var sigs []string
	for _, combo := range g.Combos {
		crew := ResolveCrew(g, combo, r.costs, r.sale, r.searchSet)
		e := &collections.CostEntry{
			Collection: g.Name,
			Combo:      combo,
			Cost:       StarCost(r.costs, crew, 0, r.sale),
			Crew:       crew,
		}
		sig := e.Signature()
		prev, ok := bySig[sig]
		if !ok {
			sigs = append(sigs, sig)
			bySig[sig] = e
			continue
		}
		if len(combo.Names) > len(prev.Combo.Names) {
			bySig[sig] = e
		}
	}

	var out []*collections.CostEntry
	seenNames := make(map[string]bool, len(sigs))
	for _, sig := range sigs {
		e := bySig[sig]
		names := slices.Clone(e.Combo.Names)
		slices.Sort(names)
		key := strings.Join(names, collections.ComboSeparator)
		if seenNames[key] {
			continue
		}
		seenNames[key] = true
		out = append(out, e)
	}
	return out
}

func cheapest(g *collections.OptimizedGroup) int {
	if len(g.ComboCost) == 0 {
		return 0
	}
	return g.ComboCost[0]
}

// compareEfficiency puts affordable groups first, then orders by cost per
// collected crew member and finally by absolute cost.
func compareEfficiency(a, b *collections.OptimizedGroup, honor int) int {
	aTooMuch, bTooMuch := a.NeededCost > honor, b.NeededCost > honor
	if aTooMuch != bTooMuch {
		if aTooMuch {
			return 1
		}
		return -1
	}
	if len(a.Combos) == 0 || len(b.Combos) == 0 {
		return 0
	}
	if c := cmp.Compare(perCrew(a), perCrew(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.NeededCost, b.NeededCost)
}

func perCrew(g *collections.OptimizedGroup) float64 {
	best := 0
	for _, c := range g.Combos {
		best = max(best, c.Count)
	}
	if best == 0 {
		return float64(g.NeededCost)
	}
	return float64(g.NeededCost) / float64(best)
}

// applySearch keeps only combos whose resolved crew include a searched name,
// and only groups whose unique crew do.
func (r *run) applySearch(groups []*collections.OptimizedGroup, costMap []*collections.CostEntry) []*collections.OptimizedGroup {
	if len(r.searches) == 0 {
		return groups
	}

	type entryKey struct{ collection, combo string }
	resolved := make(map[entryKey][]*collections.Crew, len(costMap))
	for _, e := range costMap {
		k := entryKey{e.Collection, e.Combo.Key()}
		if _, ok := resolved[k]; !ok {
			resolved[k] = e.Crew
		}
	}

	out := groups[:0]
	for _, g := range groups {
		var combos []collections.Combo
		var costs []int
		for i, c := range g.Combos {
			if !anySearched(resolved[entryKey{g.Name, c.Key()}], r.searchSet) {
				continue
			}
			combos = append(combos, c)
			if i < len(g.ComboCost) {
				costs = append(costs, g.ComboCost[i])
			}
		}
		g.Combos, g.ComboCost = combos, costs
		if !anySearched(g.UniqueCrew, r.searchSet) || len(combos) == 0 {
			continue
		}
		out = append(out, g)
	}
	return out
}
