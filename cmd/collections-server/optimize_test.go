package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

func TestPrintGroups(t *testing.T) {
	kirk := &collections.Crew{Symbol: "kirk", Name: "James T. Kirk"}
	spock := &collections.Crew{Symbol: "spock", Name: "Spock"}
	combo := collections.Combo{Names: []string{"* Alpha", "Beta"}, Crew: []string{"kirk", "spock"}, Count: 2}

	resp := &collections.OptimizeResponse{
		Groups: []*collections.OptimizedGroup{{
			Name:        "Alpha",
			Collection:  &collections.Collection{Name: "Alpha", Needed: 2},
			NeededStars: 3,
			NeededCost:  12500,
			Combos:      []collections.Combo{combo},
		}},
		CostMap: []*collections.CostEntry{{Collection: "Alpha", Combo: combo, Cost: 1500, Crew: []*collections.Crew{kirk, spock}}},
	}

	var out bytes.Buffer
	require.NoError(t, printGroups(&out, resp))

	text := out.String()
	assert.Contains(t, text, "0 collections, 1 groups")
	assert.Contains(t, text, "12,500 honor")
	assert.Contains(t, text, "* Alpha / Beta")
	assert.Contains(t, text, "1,500 honor")
	assert.Contains(t, text, "James T. Kirk, Spock")
}
