package optimizer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// crewOrder carries everything the crew comparator depends on.
type crewOrder struct {
	searches  map[string]bool
	favorites bool
	weights   map[string]int
}

// compareCrew orders crew: searched names, owned, favorites (when enabled),
// max rarity desc, fuse ratio desc, level desc, equipment desc, weight desc,
// then name.
func compareCrew(a, b *collections.Crew, o crewOrder) int {
	if len(o.searches) > 0 {
		as, bs := o.searches[a.Name], o.searches[b.Name]
		if as != bs {
			if as {
				return -1
			}
			return 1
		}
	}
	if a.Have != b.Have {
		if a.Have {
			return -1
		}
		return 1
	}
	if o.favorites && a.Favorite != b.Favorite {
		if a.Favorite {
			return -1
		}
		return 1
	}
	if r := cmp.Compare(b.MaxRarity, a.MaxRarity); r != 0 {
		return r
	}
	if r := cmp.Compare(fuseRatio(b), fuseRatio(a)); r != 0 {
		return r
	}
	if r := cmp.Compare(b.Level, a.Level); r != 0 {
		return r
	}
	if r := cmp.Compare(b.Equipment, a.Equipment); r != 0 {
		return r
	}
	if r := cmp.Compare(o.weights[b.Symbol], o.weights[a.Symbol]); r != 0 {
		return r
	}
	return strings.Compare(a.Name, b.Name)
}

func sortCrew(crew []*collections.Crew, o crewOrder) {
	slices.SortStableFunc(crew, func(a, b *collections.Crew) int {
		return compareCrew(a, b, o)
	})
}

func fuseRatio(c *collections.Crew) float64 {
	if c.MaxRarity == 0 {
		return 0
	}
	return float64(c.OwnedRarity()) / float64(c.MaxRarity)
}

// dedupeCrew keeps the first occurrence of each symbol.
func dedupeCrew(crew []*collections.Crew) []*collections.Crew {
	seen := make(map[string]bool, len(crew))
	out := make([]*collections.Crew, 0, len(crew))
	for _, c := range crew {
		if c == nil || seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true
		out = append(out, c)
	}
	return out
}

func anySearched(crew []*collections.Crew, searches map[string]bool) bool {
	for _, c := range crew {
		if searches[c.Name] {
			return true
		}
	}
	return false
}
