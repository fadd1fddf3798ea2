package sync

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// ErrInvalidJSON is returned for input that is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// ParsePlayer reads a player export. The export nests the roster under
// player.character; crew in the crew list default to owned and crew in the
// unowned list default to the unowned completion state.
func ParsePlayer(data []byte) (*collections.PlayerData, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	player := gjson.GetBytes(data, "player")
	if !player.Exists() {
		return nil, errors.New("missing player object")
	}

	pd := &collections.PlayerData{
		ID:    player.Get("id").String(),
		Name:  player.Get("display_name").String(),
		Honor: int(player.Get("honor").Int()),
	}
	if pd.ID == "" {
		return nil, errors.New("missing player id")
	}

	character := player.Get("character")
	character.Get("crew").ForEach(func(_, v gjson.Result) bool {
		if c, ok := parseCrew(v, true); ok {
			pd.Crew = append(pd.Crew, c)
		}
		return true
	})
	character.Get("unOwnedCrew").ForEach(func(_, v gjson.Result) bool {
		if c, ok := parseCrew(v, false); ok {
			pd.UnownedCrew = append(pd.UnownedCrew, c)
		}
		return true
	})

	return pd, nil
}

func parseCrew(v gjson.Result, owned bool) (collections.Crew, bool) {
	symbol := v.Get("symbol").String()
	if symbol == "" {
		return collections.Crew{}, false
	}

	c := collections.Crew{
		Symbol:             symbol,
		Name:               v.Get("name").String(),
		Collections:        readStringSlice(v.Get("collections")),
		Have:               owned,
		Favorite:           v.Get("favorite").Bool(),
		Rarity:             int(v.Get("rarity").Int()),
		HighestOwnedRarity: int(v.Get("highest_owned_rarity").Int()),
		MaxRarity:          int(v.Get("max_rarity").Int()),
		Level:              int(v.Get("level").Int()),
	}
	if have := v.Get("have"); have.Exists() {
		c.Have = have.Bool()
	}

	switch imm := v.Get("immortal"); {
	case imm.Exists():
		c.Immortal = collections.CompletionState(imm.Int())
	case !c.Have:
		c.Immortal = collections.CompletionUnowned
	}

	// Equipment is either a list of slots or a count.
	if eq := v.Get("equipment"); eq.IsArray() {
		c.Equipment = len(eq.Array())
	} else {
		c.Equipment = int(eq.Int())
	}

	if c.Name == "" {
		c.Name = symbol
	}
	return c, true
}

// ParseCatalog reads a collection catalog export: either a bare array or
// an object with a collections array.
func ParseCatalog(data []byte) ([]collections.Collection, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		list = list.Get("collections")
	}
	if !list.IsArray() {
		return nil, errors.New("no collections array")
	}

	var cols []collections.Collection
	var err error
	list.ForEach(func(_, v gjson.Result) bool {
		name := v.Get("name").String()
		if name == "" {
			err = fmt.Errorf("collection %s has no name", v.Get("id").String())
			return false
		}
		c := collections.Collection{
			ID:           int(v.Get("id").Int()),
			Name:         name,
			Needed:       int(v.Get("needed").Int()),
			Owned:        int(v.Get("owned").Int()),
			Progress:     readCount(v.Get("progress")),
			TotalRewards: int(v.Get("totalRewards").Int()),
			Milestone: collections.Milestone{
				Goal: readCount(v.Get("milestone.goal")),
			},
		}
		if idx := v.Get("claimable_milestone_index"); idx.Exists() && idx.Type != gjson.Null {
			i := int(idx.Int())
			c.ClaimableMilestoneIndex = &i
		}
		v.Get("milestone.rewards").ForEach(func(_, r gjson.Result) bool {
			c.Milestone.Rewards = append(c.Milestone.Rewards, collections.Reward{
				Symbol:   r.Get("symbol").String(),
				Type:     int(r.Get("type").Int()),
				Quantity: int(r.Get("quantity").Int()),
			})
			return true
		})
		cols = append(cols, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}

// Prices holds per-star honor prices by max rarity.
type Prices struct {
	Normal map[int]int
	Sale   map[int]int
}

// ParsePrices reads a price table of the form
// {"normal": {"1": 50, ...}, "sale": {"1": 25, ...}}.
func ParsePrices(data []byte) (*Prices, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	p := &Prices{
		Normal: make(map[int]int),
		Sale:   make(map[int]int),
	}
	for mode, dst := range map[string]map[int]int{
		string(collections.CostModeNormal): p.Normal,
		string(collections.CostModeSale):   p.Sale,
	} {
		var err error
		gjson.GetBytes(data, mode).ForEach(func(k, v gjson.Result) bool {
			rarity, convErr := strconv.Atoi(k.String())
			if convErr != nil {
				err = fmt.Errorf("%s price rarity %q: %w", mode, k.String(), convErr)
				return false
			}
			dst[rarity] = int(v.Int())
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func readCount(v gjson.Result) collections.Count {
	switch v.Type {
	case gjson.String:
		if v.String() == collections.NotApplicable {
			return collections.Count{NA: true}
		}
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return collections.Count{}
		}
		return collections.Count{Value: n}
	case gjson.Number:
		return collections.Count{Value: int(v.Int())}
	}
	return collections.Count{}
}

func readStringSlice(v gjson.Result) []string {
	if !v.Exists() || !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		out = append(out, item.String())
	}
	return out
}
