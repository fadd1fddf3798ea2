package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

func crewRefs(symbols ...string) []*collections.Crew {
	out := make([]*collections.Crew, len(symbols))
	for i, s := range symbols {
		c := ownedCrew(s, 3, 5)
		out[i] = &c
	}
	return out
}

func group(col collections.Collection, crew []*collections.Crew) *collections.CollectionGroup {
	return &collections.CollectionGroup{Collection: &col, Crew: crew}
}

func linkedNames(links []*collections.CollectionGroup) []string {
	var out []string
	for _, l := range links {
		out = append(out, l.Collection.Name)
	}
	return out
}

func TestLinkable(t *testing.T) {
	tests := []struct {
		name     string
		progress collections.Count
		needed   int
		want     bool
	}{
		{"open slots", collections.Count{Value: 2}, 3, true},
		{"exactly full", collections.Count{Value: 8}, 2, true},
		{"over owned", collections.Count{Value: 9}, 2, false},
		{"progress n/a", collections.Count{NA: true}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := testCollection(1, "Alpha", tt.needed)
			col.Progress = tt.progress
			assert.Equal(t, tt.want, linkable(&col))
		})
	}
}

func TestScoreLinks(t *testing.T) {
	withProgress := func(col collections.Collection, p collections.Count) collections.Collection {
		col.Progress = p
		return col
	}

	tests := []struct {
		name   string
		groups []*collections.CollectionGroup
		check  string
		want   []string
	}{
		{
			name: "too few shared crew",
			groups: []*collections.CollectionGroup{
				group(testCollection(1, "Main", 4), crewRefs("a", "b", "c", "d")),
				group(testCollection(2, "Other", 4), crewRefs("a", "b", "c", "e")),
			},
			check: "Main",
		},
		{
			name: "progress n/a never links",
			groups: []*collections.CollectionGroup{
				group(withProgress(testCollection(1, "Main", 2), collections.Count{NA: true}), crewRefs("a", "b")),
				group(testCollection(2, "Other", 2), crewRefs("a", "b")),
			},
			check: "Other",
		},
		{
			name: "progress past owned never links",
			groups: []*collections.CollectionGroup{
				group(withProgress(testCollection(1, "Main", 2), collections.Count{Value: 9}), crewRefs("a", "b")),
				group(testCollection(2, "Other", 2), crewRefs("a", "b")),
			},
			check: "Main",
		},
		{
			name: "smaller threshold does not link to larger",
			groups: []*collections.CollectionGroup{
				group(testCollection(1, "Small", 2), crewRefs("a", "b", "c")),
				group(testCollection(2, "Big", 3), crewRefs("a", "b", "c")),
			},
			check: "Small",
		},
		{
			name: "larger threshold links to smaller",
			groups: []*collections.CollectionGroup{
				group(testCollection(1, "Small", 2), crewRefs("a", "b", "c")),
				group(testCollection(2, "Big", 3), crewRefs("a", "b", "c")),
			},
			check: "Big",
			want:  []string{"Small"},
		},
		{
			name: "shared count then name",
			groups: []*collections.CollectionGroup{
				group(testCollection(1, "Main", 4), crewRefs("a", "b", "c", "d", "e")),
				group(testCollection(4, "Dee", 2), crewRefs("c", "d")),
				group(testCollection(2, "Bee", 2), crewRefs("a", "b")),
				group(testCollection(3, "Cee", 3), crewRefs("a", "b", "c")),
			},
			check: "Main",
			want:  []string{"Cee", "Bee", "Dee"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRun(New(), &Config{})
			links, order := r.scoreLinks(tt.groups)

			require.Len(t, order, len(tt.groups))
			assert.Equal(t, tt.want, linkedNames(links[tt.check]))
			for _, l := range links[tt.check] {
				assert.True(t, l.Completes)
				assert.GreaterOrEqual(t, len(l.Crew), l.Collection.Needed)
				assert.NotEqual(t, tt.check, l.Collection.Name)
			}
		})
	}
}
