package optimizer

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

func TestAllCombos(t *testing.T) {
	got := AllCombos([]string{"a", "b", "c"}, 0)
	assert.Equal(t, [][]string{
		{"a"}, {"b"}, {"c"},
		{"a", "b"}, {"a", "c"}, {"b", "c"},
		{"a", "b", "c"},
	}, got)
}

func TestAllCombos_Limit(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}

	assert.Len(t, AllCombos(names, 0), 1023)
	assert.Len(t, AllCombos(names, 1000), 1000)
	assert.Len(t, AllCombos(names, 5), 5)
	assert.Empty(t, AllCombos(nil, 0))
}

// wideGroup builds a group whose crew each fill a distinct one-slot
// collection, giving n candidate partners below the group's threshold.
func wideGroup(n int) (*run, *collections.OptimizedGroup) {
	cols := []collections.Collection{testCollection(1, "Wide", n+1)}
	var crew []*collections.Crew
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("L%02d", i)
		cols = append(cols, testCollection(i+2, name, 1))
		c := ownedCrew(fmt.Sprintf("crew%02d", i), 3, 5, "Wide", name)
		crew = append(crew, &c)
	}
	cfg := &Config{PlayerCollections: cols}
	r := newRun(New(), cfg)
	g := &collections.OptimizedGroup{
		Name:       "Wide",
		Collection: r.catalog["Wide"],
		UniqueCrew: crew,
	}
	return r, g
}

func TestGenerateCombos_CapKeepsFullSet(t *testing.T) {
	r, g := wideGroup(10)

	got := r.generateCombos(g)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), DefaultSubsetCap+1)

	full := make([]string, 10)
	for i := range full {
		full[i] = fmt.Sprintf("L%02d", i)
	}
	assert.Equal(t, full, got[0])

	for _, combo := range got {
		assert.NotContains(t, combo, "Wide")
	}
}

func TestGenerateCombos_BelowTriggerEnumeratesAll(t *testing.T) {
	r, g := wideGroup(4)

	got := r.generateCombos(g)
	assert.Len(t, got, 15)
	assert.Equal(t, []string{"L00"}, got[0])
	assert.Equal(t, []string{"L00", "L01", "L02", "L03"}, got[len(got)-1])
}

func TestGenerateCombos_CapAtTriggerDoesNotDuplicate(t *testing.T) {
	r, g := wideGroup(DefaultSubsetCapTrigger)

	got := r.generateCombos(g)
	assert.Len(t, got, 255)

	seen := make(map[string]bool)
	for _, combo := range got {
		key := fmt.Sprint(combo)
		assert.False(t, seen[key], "duplicate combo %v", combo)
		seen[key] = true
	}
}

func TestGenerateCombos_CustomTuning(t *testing.T) {
	_, g := wideGroup(5)
	cfg := &Config{}
	for _, col := range []string{"Wide", "L00", "L01", "L02", "L03", "L04"} {
		needed := 1
		if col == "Wide" {
			needed = 6
		}
		cfg.PlayerCollections = append(cfg.PlayerCollections, testCollection(len(cfg.PlayerCollections)+1, col, needed))
	}
	r := newRun(New(WithTuning(Tuning{SubsetCap: 3, SubsetCapTrigger: 5})), cfg)
	g.Collection = r.catalog["Wide"]

	got := r.generateCombos(g)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"L00", "L01", "L02", "L03", "L04"}, got[0])
	assert.True(t, slices.Equal([]string{"L00"}, got[1]))
}

func TestGenerateCombos_EqualThresholdPartners(t *testing.T) {
	r := newRun(New(), &Config{PlayerCollections: []collections.Collection{
		testCollection(1, "Alpha", 2),
		testCollection(2, "Beta", 2),
		testCollection(3, "Gamma", 3),
	}})
	a := ownedCrew("a", 3, 5, "Alpha", "Beta", "Gamma")
	b := ownedCrew("b", 3, 5, "Alpha", "Beta")
	g := &collections.OptimizedGroup{
		Name:       "Alpha",
		Collection: r.catalog["Alpha"],
		UniqueCrew: []*collections.Crew{&a, &b},
	}

	// Gamma needs three and only a belongs to it, so it is not a head.
	got := r.generateCombos(g)
	assert.Equal(t, [][]string{{"Beta"}}, got)
}
