package optimizer

import (
	"cmp"
	"slices"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// Classification holds the valid combos of a group, bucketed by how their
// crew count compares to the group's threshold.
type Classification struct {
	Exact []collections.Combo
	Over  []collections.Combo
	Under []collections.Combo
}

// tally tracks crew attributed to one collection of a candidate.
type tally struct {
	need int
	crew []string
	good bool
}

// classifyCombos validates candidates against the group's links. A candidate
// is valid only when every named collection reaches its own threshold from
// the candidate's pooled crew.
func classifyCombos(g *collections.OptimizedGroup, candidates [][]string) Classification {
	links := make(map[string]*collections.CollectionGroup, len(g.Links))
	for _, l := range g.Links {
		if _, ok := links[l.Collection.Name]; !ok {
			links[l.Collection.Name] = l
		}
	}
	needed := g.Collection.Needed

	var cl Classification
	for _, names := range candidates {
		combo, ok := attribute(names, links)
		if !ok {
			continue
		}
		switch {
		case combo.Count == needed:
			cl.Exact = append(cl.Exact, combo)
		case combo.Count > needed:
			cl.Over = append(cl.Over, combo)
		default:
			cl.Under = append(cl.Under, combo)
		}
	}

	byCount := func(a, b collections.Combo) int {
		return cmp.Compare(len(b.Crew), len(a.Crew))
	}
	slices.SortStableFunc(cl.Exact, byCount)
	slices.SortStableFunc(cl.Over, byCount)
	slices.SortStableFunc(cl.Under, byCount)

	for i := range cl.Exact {
		names := slices.Clone(cl.Exact[i].Names)
		names[0] = collections.PrimaryMarker + names[0]
		cl.Exact[i].Names = names
	}
	return cl
}

// attribute assigns pooled crew to the named collections in encounter order.
func attribute(names []string, links map[string]*collections.CollectionGroup) (collections.Combo, bool) {
	if len(names) == 0 {
		return collections.Combo{}, false
	}
	cols := make([]*collections.CollectionGroup, 0, len(names))
	for _, n := range names {
		l := links[n]
		if l == nil {
			return collections.Combo{}, false
		}
		cols = append(cols, l)
	}

	var pool []*collections.Crew
	for _, l := range cols {
		pool = append(pool, l.Crew...)
	}
	pool = dedupeCrew(pool)

	tallies := make(map[string]*tally, len(cols))
	var tallyOrder []string
	for _, l := range cols {
		if l.Collection.Needed <= 0 {
			tallies[l.Collection.Name] = &tally{good: true}
			tallyOrder = append(tallyOrder, l.Collection.Name)
		}
	}
	for _, c := range pool {
		for _, l := range cols {
			if !slices.ContainsFunc(l.Crew, func(x *collections.Crew) bool { return x.Symbol == c.Symbol }) {
				continue
			}
			name := l.Collection.Name
			t := tallies[name]
			if t == nil {
				t = &tally{need: l.Collection.Needed}
				tallies[name] = t
				tallyOrder = append(tallyOrder, name)
			}
			if t.good {
				continue
			}
			t.crew = append(t.crew, c.Symbol)
			if len(t.crew) >= t.need {
				t.good = true
			}
		}
	}

	for _, n := range names {
		if t := tallies[n]; t == nil || !t.good {
			return collections.Combo{}, false
		}
	}

	var crew []string
	seen := make(map[string]bool)
	for _, n := range tallyOrder {
		for _, s := range tallies[n].crew {
			if !seen[s] {
				seen[s] = true
				crew = append(crew, s)
			}
		}
	}
	if len(crew) == 0 {
		return collections.Combo{}, false
	}
	return collections.Combo{
		Names: slices.Clone(names),
		Crew:  crew,
		Count: len(crew),
	}, true
}

// selectCombos applies the match mode policy. Over-threshold combos are
// never surfaced.
func selectCombos(cl Classification, mode collections.MatchMode) []collections.Combo {
	switch mode {
	case collections.MatchNormal:
		if len(cl.Exact) > 1 {
			return cl.Exact
		}
		return append(slices.Clone(cl.Exact), cl.Under...)
	case collections.MatchExactOnly:
		return cl.Exact
	case collections.MatchInexactOnly:
		return cl.Under
	default:
		return append(slices.Clone(cl.Exact), cl.Under...)
	}
}

// optimizeGroups runs link scoring, assembly, combo generation and
// classification, then applies the map filter to the surviving combos.
func (r *run) optimizeGroups(groups []*collections.CollectionGroup) []*collections.OptimizedGroup {
	links, order := r.scoreLinks(groups)
	optimized := r.assembleGroups(groups, links, order)
	r.logger.Debug("links scored", "collections", len(order), "linked", len(optimized))

	mf := r.cfg.FilterProps.MapFilter
	short := r.cfg.FilterProps.Short
	var out []*collections.OptimizedGroup
	for _, g := range optimized {
		candidates := r.generateCombos(g)
		combos := selectCombos(classifyCombos(g, candidates), r.cfg.MatchMode)

		if len(mf.RewardFilter) > 0 {
			slices.SortStableFunc(combos, func(a, b collections.Combo) int {
				return CompareRewards(mf, r.lookup(a.Collections()), r.lookup(b.Collections()), short)
			})
		}
		if len(mf.CollectionsFilter) > 0 && !slices.Contains(mf.CollectionsFilter, g.Collection.ID) {
			combos = slices.DeleteFunc(combos, func(c collections.Combo) bool {
				return !slices.ContainsFunc(r.lookup(c.Collections()), func(col *collections.Collection) bool {
					return slices.Contains(mf.CollectionsFilter, col.ID)
				})
			})
		}
		if len(combos) == 0 {
			continue
		}
		g.Combos = combos
		out = append(out, g)
	}

	slices.SortStableFunc(out, func(a, b *collections.OptimizedGroup) int {
		if len(mf.RewardFilter) > 0 {
			if c := CompareRewards(mf, linkedCollections(a), linkedCollections(b), short); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(primaryCount(b), primaryCount(a)); c != 0 {
			return c
		}
		return cmp.Compare(len(b.Combos), len(a.Combos))
	})
	return out
}

func linkedCollections(g *collections.OptimizedGroup) []*collections.Collection {
	out := []*collections.Collection{g.Collection}
	for _, l := range g.Links {
		out = append(out, l.Collection)
	}
	return out
}

func primaryCount(g *collections.OptimizedGroup) int {
	n := 0
	for _, c := range g.Combos {
		if c.Primary() {
			n++
		}
	}
	return n
}
