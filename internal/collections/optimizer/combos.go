package optimizer

import (
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// generateCombos proposes the collection name sets that the group's unique
// crew might complete together. Candidates are not yet checked against crew.
func (r *run) generateCombos(g *collections.OptimizedGroup) [][]string {
	name := g.Name
	needed := g.Collection.Needed

	// Heads are catalog collections this group's crew could fill on their own.
	touched := make(map[string]bool)
	for _, c := range g.UniqueCrew {
		for _, n := range c.Collections {
			touched[n] = true
		}
	}
	heads := make(map[string]bool)
	for n := range touched {
		col := r.catalog[n]
		if col == nil || col.Needed <= 0 {
			continue
		}
		count := 0
		for _, c := range g.UniqueCrew {
			if c.InCollection(n) {
				count++
			}
		}
		if count >= col.Needed {
			heads[n] = true
		}
	}

	var protos [][]string
	seen := make(map[string]bool)
	for _, c := range g.UniqueCrew {
		var names []string
		for _, n := range c.Collections {
			if n != name && heads[n] && !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
		if len(names) == 0 {
			continue
		}
		slices.Sort(names)
		key := strings.Join(names, collections.ComboSeparator)
		if seen[key] {
			continue
		}
		seen[key] = true
		protos = append(protos, names)
	}

	var less []string
	var exact [][]string
	for _, p := range protos {
		if r.allNeeded(p, func(n int) bool { return n < needed }) {
			for _, n := range p {
				if !slices.Contains(less, n) {
					less = append(less, n)
				}
			}
		}
		if r.allNeeded(p, func(n int) bool { return n == needed }) && !slices.Contains(p, name) {
			exact = append(exact, p)
		}
	}

	if len(less) == 0 {
		return exact
	}

	limit := 0
	if len(less) >= r.tuning.SubsetCapTrigger {
		limit = r.tuning.SubsetCap
	}

	raw := append(slices.Clone(exact), AllCombos(less, limit)...)
	out := make([][]string, 0, len(raw)+1)
	dedup := make(map[string]bool, len(raw)+1)

	// A capped search always keeps the full candidate set, first.
	if limit > 0 {
		full := slices.Clone(less)
		slices.Sort(full)
		dedup[strings.Join(full, collections.ComboSeparator)] = true
		out = append(out, full)
	}

	for _, combo := range raw {
		combo = slices.Clone(combo)
		slices.Sort(combo)
		key := strings.Join(combo, collections.ComboSeparator)
		if dedup[key] {
			continue
		}
		dedup[key] = true
		out = append(out, combo)
	}

	return out
}

// allNeeded reports whether every named collection's threshold satisfies ok.
// Unknown names count as a zero threshold.
func (r *run) allNeeded(names []string, ok func(int) bool) bool {
	for _, n := range names {
		needed := 0
		if col := r.catalog[n]; col != nil {
			needed = col.Needed
		}
		if !ok(needed) {
			return false
		}
	}
	return true
}

// AllCombos enumerates the non-empty subsets of names by increasing size,
// each size in lexicographic index order. A positive limit stops the
// enumeration after that many subsets.
func AllCombos(names []string, limit int) [][]string {
	var out [][]string
	n := len(names)
	for size := 1; size <= n; size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			if limit > 0 && len(out) >= limit {
				return out
			}
			subset := make([]string, size)
			for i, j := range idx {
				subset[i] = names[j]
			}
			out = append(out, subset)

			// Advance to the next index combination.
			i := size - 1
			for i >= 0 && idx[i] == n-size+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < size; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
	return out
}
