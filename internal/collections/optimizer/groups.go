package optimizer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// widened reports whether unowned crew join the pool.
func (r *run) widened() bool {
	return len(r.cfg.FilterProps.MapFilter.CollectionsFilter) > 0 || len(r.searches) > 0
}

// crewPool returns the distinct, non-immortalized crew the invocation may use.
// A symbol with any immortalized record is excluded entirely.
func (r *run) crewPool() []*collections.Crew {
	requested := make(map[string]bool, len(r.cfg.CollectionCrew))
	for _, s := range r.cfg.CollectionCrew {
		requested[s] = true
	}

	var all []*collections.Crew
	pd := &r.cfg.PlayerData
	for i := range pd.Crew {
		all = append(all, &pd.Crew[i])
	}
	if r.widened() {
		for i := range pd.UnownedCrew {
			all = append(all, &pd.UnownedCrew[i])
		}
	}

	blocked := make(map[string]bool)
	var candidates []*collections.Crew
	for _, c := range all {
		if !requested[c.Symbol] {
			continue
		}
		if c.IsImmortalized() {
			blocked[c.Symbol] = true
		}
		candidates = append(candidates, c)
	}

	pool := make([]*collections.Crew, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if blocked[c.Symbol] || seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true
		pool = append(pool, c)
	}
	return pool
}

// buildGroups builds one group per collection named by the crew pool.
func (r *run) buildGroups() []*collections.CollectionGroup {
	pool := r.crewPool()
	if len(pool) == 0 {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, c := range pool {
		for _, n := range c.Collections {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	slices.Sort(names)

	props := r.cfg.FilterProps
	widened := r.widened()

	var groups []*collections.CollectionGroup
	for _, name := range names {
		col := r.catalog[name]
		if col == nil {
			continue
		}
		var crew []*collections.Crew
		for _, c := range pool {
			if c.IsImmortalized() || !c.InCollection(name) {
				continue
			}
			if !passesOwnedFilter(c, props.OwnedFilter, widened) {
				continue
			}
			if !CheckCommonFilter(props, c, collections.OwnedFilterUnowned, collections.OwnedFilterOwned) {
				continue
			}
			crew = append(crew, c)
		}
		if len(crew) < col.Needed && props.SearchFilter == "" {
			continue
		}
		if !col.Milestone.Goal.NA && col.Milestone.Goal.Value == 0 {
			continue
		}
		groups = append(groups, &collections.CollectionGroup{Collection: col, Crew: crew})
	}

	for _, g := range groups {
		for _, c := range g.Crew {
			r.weights[c.Symbol] = r.claimableCount(c)
		}
	}

	order := r.crewOrder()
	for _, g := range groups {
		sortCrew(g.Crew, order)
		g.NeededStars = NeededStars(g.Crew, g.Collection.Needed)
		g.NeededCost = StarCost(r.costs, g.Crew, g.Collection.Needed, r.sale)
	}

	slices.SortStableFunc(groups, r.compareMaps)

	return slices.DeleteFunc(groups, func(g *collections.CollectionGroup) bool {
		return len(g.Crew) == 0
	})
}

// claimableCount counts the crew member's collections that can still pay out.
func (r *run) claimableCount(c *collections.Crew) int {
	n := 0
	for _, name := range c.Collections {
		if col := r.catalog[name]; col != nil && col.Claimable() {
			n++
		}
	}
	return n
}

// compareMaps orders groups by rewards, then by how few members are missing
// and how cheap they are to fill.
func (r *run) compareMaps(a, b *collections.CollectionGroup) int {
	mf := r.cfg.FilterProps.MapFilter
	if len(mf.RewardFilter) > 0 {
		if c := CompareRewards(mf, []*collections.Collection{a.Collection}, []*collections.Collection{b.Collection}, r.cfg.FilterProps.Short); c != 0 {
			return c
		}
	}
	ac, bc := a.Collection, b.Collection
	if c := cmp.Compare(missing(ac), missing(bc)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NeededCost, b.NeededCost); c != 0 {
		return c
	}
	if c := cmp.Compare(ac.Needed, bc.Needed); c != 0 {
		return c
	}
	if c := cmp.Compare(bc.Milestone.Goal.Int(), ac.Milestone.Goal.Int()); c != 0 {
		return c
	}
	return strings.Compare(ac.Name, bc.Name)
}

func missing(col *collections.Collection) int {
	return max(col.Milestone.Goal.Int()-col.Owned, 0)
}

// selectMaps picks the groups reported as raw collection maps.
func (r *run) selectMaps(groups []*collections.CollectionGroup) []*collections.CollectionGroup {
	filter := r.cfg.FilterProps.MapFilter.CollectionsFilter
	var out []*collections.CollectionGroup
	for _, g := range groups {
		if len(g.Crew) == 0 || g.Collection.TotalRewards == 0 {
			continue
		}
		if len(filter) > 0 && !slices.Contains(filter, g.Collection.ID) {
			continue
		}
		if r.cfg.FilterProps.SearchFilter != "" && !anySearched(g.Crew, r.searchSet) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// optimizerInput narrows groups to crew that are owned or at least
// partially invested, dropping groups left empty. Input groups are not
// modified.
func optimizerInput(groups []*collections.CollectionGroup) []*collections.CollectionGroup {
	out := make([]*collections.CollectionGroup, 0, len(groups))
	for _, g := range groups {
		crew := make([]*collections.Crew, 0, len(g.Crew))
		for _, c := range g.Crew {
			if c.Have || c.Immortal >= collections.CompletionImmortalized {
				crew = append(crew, c)
			}
		}
		if len(crew) == 0 {
			continue
		}
		cp := *g
		cp.Crew = crew
		out = append(out, &cp)
	}
	return out
}
