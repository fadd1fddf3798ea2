package optimizer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// linkable reports whether a collection still has open slots and thus can
// take part in linking.
func linkable(col *collections.Collection) bool {
	if col.Progress.NA {
		return false
	}
	// Equality still links.
	return col.Progress.Int()+col.Needed <= col.Owned
}

// scoreLinks computes, for every group, the other groups whose shared crew
// complete them. The returned order lists group names in input order.
func (r *run) scoreLinks(groups []*collections.CollectionGroup) (map[string][]*collections.CollectionGroup, []string) {
	links := make(map[string][]*collections.CollectionGroup, len(groups))
	var order []string
	crewOrd := r.crewOrder()

	for _, a := range groups {
		name := a.Collection.Name
		if _, ok := links[name]; !ok {
			links[name] = nil
			order = append(order, name)
		}
		if !linkable(a.Collection) {
			continue
		}
		for _, b := range groups {
			if !linkable(b.Collection) || b.Collection.Name == name {
				continue
			}
			if a.Collection.Needed < b.Collection.Needed {
				continue
			}
			shared := sharedCrew(a.Crew, b.Crew)
			if len(shared) == 0 {
				continue
			}
			sortCrew(shared, crewOrd)
			links[name] = append(links[name], &collections.CollectionGroup{
				Collection: b.Collection,
				Crew:       shared,
				Completes:  len(shared) >= b.Collection.Needed,
			})
		}

		kept := slices.DeleteFunc(links[name], func(l *collections.CollectionGroup) bool {
			return !l.Completes
		})
		slices.SortStableFunc(kept, func(x, y *collections.CollectionGroup) int {
			if c := cmp.Compare(len(y.Crew), len(x.Crew)); c != 0 {
				return c
			}
			return strings.Compare(x.Collection.Name, y.Collection.Name)
		})
		links[name] = kept
	}
	return links, order
}

// sharedCrew returns the crew present in both lists, in both directions,
// distinct by symbol.
func sharedCrew(a, b []*collections.Crew) []*collections.Crew {
	inA := make(map[string]bool, len(a))
	for _, c := range a {
		inA[c.Symbol] = true
	}
	inB := make(map[string]bool, len(b))
	for _, c := range b {
		inB[c.Symbol] = true
	}

	var out []*collections.Crew
	for _, c := range a {
		if inB[c.Symbol] {
			out = append(out, c)
		}
	}
	for _, c := range b {
		if inA[c.Symbol] {
			out = append(out, c)
		}
	}
	return dedupeCrew(out)
}
