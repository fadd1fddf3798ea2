package optimizer

import (
	"cmp"
	"slices"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// CostFunc values a single crew member in honor.
type CostFunc interface {
	CrewCost(c *collections.Crew, sale bool) int
}

// DefaultStandardPrices is the honor price of one star by crew max rarity.
var DefaultStandardPrices = map[int]int{
	1: 50,
	2: 200,
	3: 500,
	4: 1200,
	5: 3000,
}

// DefaultSaleDiscountPct is the sale discount applied when no sale table is given.
const DefaultSaleDiscountPct = 50

// StarCoster prices the stars a crew member is missing.
type StarCoster struct {
	Standard map[int]int
	Sale     map[int]int
}

// DefaultStarCoster returns a StarCoster using the default price tables.
func DefaultStarCoster() *StarCoster {
	return NewStarCoster(DefaultStandardPrices, nil, DefaultSaleDiscountPct)
}

// NewStarCoster builds a StarCoster. Rarities missing from sale are derived
// from standard using discountPct.
func NewStarCoster(standard, sale map[int]int, discountPct int) *StarCoster {
	s := &StarCoster{
		Standard: make(map[int]int, len(standard)),
		Sale:     make(map[int]int, len(standard)),
	}
	for r, p := range standard {
		s.Standard[r] = p
		s.Sale[r] = p * (100 - discountPct) / 100
	}
	for r, p := range sale {
		s.Sale[r] = p
	}
	return s
}

// CrewCost implements CostFunc.
func (s *StarCoster) CrewCost(c *collections.Crew, sale bool) int {
	stars := MissingStars(c)
	if stars == 0 {
		return 0
	}
	price, ok := s.Standard[c.MaxRarity]
	if sale {
		if p, found := s.Sale[c.MaxRarity]; found {
			price, ok = p, true
		}
	}
	if !ok {
		return 0
	}
	return stars * price
}

// MissingStars returns the stars needed to fully fuse a crew member.
func MissingStars(c *collections.Crew) int {
	if c.IsImmortalized() {
		return 0
	}
	if !c.Have {
		return c.MaxRarity
	}
	return max(c.MaxRarity-c.OwnedRarity(), 0)
}

// NeededStars sums missing stars over the first needed crew, or all crew
// when needed is not positive.
func NeededStars(crew []*collections.Crew, needed int) int {
	total := 0
	for _, c := range head(crew, needed) {
		total += MissingStars(c)
	}
	return total
}

// StarCost sums crew costs over the first needed crew, or all crew when
// needed is not positive.
func StarCost(costs CostFunc, crew []*collections.Crew, needed int, sale bool) int {
	total := 0
	for _, c := range head(crew, needed) {
		total += costs.CrewCost(c, sale)
	}
	return total
}

func head(crew []*collections.Crew, n int) []*collections.Crew {
	if n <= 0 || n >= len(crew) {
		return crew
	}
	return crew[:n]
}

// ResolveCrew picks the concrete crew for a combo: the crew attributed to the
// combo first, then the group's own crew until its threshold is met, searched
// names before others and cheaper before dearer. The selection is returned
// cheapest first.
func ResolveCrew(
	g *collections.OptimizedGroup,
	combo collections.Combo,
	costs CostFunc,
	sale bool,
	searches map[string]bool,
) []*collections.Crew {
	bySymbol := make(map[string]*collections.Crew, len(g.UniqueCrew))
	for _, c := range g.UniqueCrew {
		if _, ok := bySymbol[c.Symbol]; !ok {
			bySymbol[c.Symbol] = c
		}
	}

	picked := make([]*collections.Crew, 0, len(combo.Crew))
	seen := make(map[string]bool, len(combo.Crew))
	for _, sym := range combo.Crew {
		c := bySymbol[sym]
		if c == nil || seen[sym] {
			continue
		}
		seen[sym] = true
		picked = append(picked, c)
	}

	needed := g.Collection.Needed
	if len(picked) < needed {
		var fill []*collections.Crew
		for _, c := range g.UniqueCrew {
			if !seen[c.Symbol] && c.InCollection(g.Collection.Name) {
				seen[c.Symbol] = true
				fill = append(fill, c)
			}
		}
		slices.SortStableFunc(fill, func(a, b *collections.Crew) int {
			as, bs := searches[a.Name], searches[b.Name]
			if as != bs {
				if as {
					return -1
				}
				return 1
			}
			return cmp.Compare(costs.CrewCost(a, sale), costs.CrewCost(b, sale))
		})
		for _, c := range fill {
			if len(picked) >= needed {
				break
			}
			picked = append(picked, c)
		}
	}

	slices.SortStableFunc(picked, func(a, b *collections.Crew) int {
		return cmp.Compare(costs.CrewCost(a, sale), costs.CrewCost(b, sale))
	})
	return picked
}
