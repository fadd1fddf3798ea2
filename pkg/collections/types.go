// Package collections contains the core types for the collection optimizer server.
package collections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ============================================
// ROSTER TYPES
// ============================================

// CompletionState describes how far a crew member has been invested.
// Positive values count frozen (immortalized and stored) copies.
type CompletionState int

const (
	CompletionUnowned      CompletionState = -3
	CompletionNotComplete  CompletionState = -2
	CompletionImmortalized CompletionState = -1
	CompletionNone         CompletionState = 0
	CompletionFrozen       CompletionState = 1
)

// Crew is a single crew member from a player roster.
type Crew struct {
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	Collections        []string        `json:"collections"`
	Have               bool            `json:"have"`
	Favorite           bool            `json:"favorite,omitempty"`
	Immortal           CompletionState `json:"immortal"`
	Rarity             int             `json:"rarity"`
	HighestOwnedRarity int             `json:"highest_owned_rarity,omitempty"`
	MaxRarity          int             `json:"max_rarity"`
	Level              int             `json:"level"`
	Equipment          int             `json:"equipment"` // number of equipped items
}

// InCollection reports whether the crew member counts toward the named collection.
func (c *Crew) InCollection(name string) bool {
	for _, col := range c.Collections {
		if col == name {
			return true
		}
	}
	return false
}

// IsImmortalized reports whether the crew member is already fully invested.
func (c *Crew) IsImmortalized() bool {
	return c.Immortal > 0 || c.Immortal == CompletionImmortalized
}

// OwnedRarity returns the highest owned rarity, falling back to the current rarity.
func (c *Crew) OwnedRarity() int {
	if c.HighestOwnedRarity > 0 {
		return c.HighestOwnedRarity
	}
	return c.Rarity
}

// PlayerData is the roster half of an optimizer invocation.
type PlayerData struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Honor       int    `json:"honor"`
	Crew        []Crew `json:"crew"`
	UnownedCrew []Crew `json:"unowned_crew,omitempty"`
}

// ============================================
// COLLECTION TYPES
// ============================================

// NotApplicable is the wire form of a counter that does not apply.
const NotApplicable = "n/a"

// Count is a numeric counter that may instead be "n/a".
type Count struct {
	Value int
	NA    bool
}

// Int returns the numeric value, treating "n/a" as zero.
func (c Count) Int() int {
	if c.NA {
		return 0
	}
	return c.Value
}

// MarshalJSON encodes the counter as a number or "n/a".
func (c Count) MarshalJSON() ([]byte, error) {
	if c.NA {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a number, "n/a" or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Count{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NotApplicable {
			return fmt.Errorf("unexpected count value %q", s)
		}
		*c = Count{NA: true}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing count: %w", err)
	}
	*c = Count{Value: int(n)}
	return nil
}

// Reward is a single milestone reward.
type Reward struct {
	Symbol   string `json:"symbol"`
	Type     int    `json:"type"`
	Quantity int    `json:"quantity"`
}

// Milestone is the next reward tier of a collection.
type Milestone struct {
	Goal    Count    `json:"goal"`
	Rewards []Reward `json:"rewards,omitempty"`
}

// Collection is a named set of crew with a completion threshold.
type Collection struct {
	ID                      int       `json:"id"`
	Name                    string    `json:"name"`
	Needed                  int       `json:"needed"`
	Owned                   int       `json:"owned"`
	Progress                Count     `json:"progress"`
	Milestone               Milestone `json:"milestone"`
	ClaimableMilestoneIndex *int      `json:"claimable_milestone_index,omitempty"`
	TotalRewards            int       `json:"total_rewards"`
}

// Claimable reports whether the collection has a threshold and an active milestone.
func (c *Collection) Claimable() bool {
	return c.Needed > 0 && c.ClaimableMilestoneIndex != nil
}

// ============================================
// FILTER TYPES
// ============================================

// MatchMode selects which combo classes are surfaced.
type MatchMode string

const (
	MatchNormal      MatchMode = "normal"
	MatchExactOnly   MatchMode = "exact-only"
	MatchInexactOnly MatchMode = "inexact-only"
)

// CostMode selects the crew valuation.
type CostMode string

const (
	CostModeNormal CostMode = "normal"
	CostModeSale   CostMode = "sale"
)

// Owned filter values with special meaning. Any value starting with
// OwnedFilterOwned restricts to owned crew.
const (
	OwnedFilterUnowned       = "unowned"
	OwnedFilterOwned         = "owned"
	OwnedFilterFullyFused    = "owned-ff"
	OwnedFilterNotFullyFused = "owned-nff"
)

// MapFilter narrows the collections under consideration.
type MapFilter struct {
	CollectionsFilter []int    `json:"collections_filter,omitempty" validate:"omitempty,dive,gt=0"`
	RewardFilter      []string `json:"reward_filter,omitempty"`
}

// FilterProps carries every caller-side filter for one invocation.
type FilterProps struct {
	CostMode     CostMode  `json:"cost_mode,omitempty" validate:"omitempty,oneof=normal sale"`
	Short        bool      `json:"short,omitempty"`
	MapFilter    MapFilter `json:"map_filter"`
	OwnedFilter  string    `json:"owned_filter,omitempty"`
	SearchFilter string    `json:"search_filter,omitempty"`
	Favorited    bool      `json:"favorited,omitempty"`
	RarityFilter []int     `json:"rarity_filter,omitempty" validate:"omitempty,dive,min=1,max=5"`
}

// Searches splits the search filter on ';' into trimmed, non-empty names.
func (f FilterProps) Searches() []string {
	if f.SearchFilter == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(f.SearchFilter, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Sale reports whether the sale valuation is active.
func (f FilterProps) Sale() bool {
	return f.CostMode == CostModeSale
}

// ============================================
// OPTIMIZER RESULT TYPES
// ============================================

// PrimaryMarker prefixes the first name of a combo that completes its group exactly.
const PrimaryMarker = "* "

// ComboSeparator joins combo names into a display key.
const ComboSeparator = " / "

// CollectionGroup pairs a collection with the crew eligible to complete it.
// When used as a link, Completes reports whether the shared crew meet the
// linked collection's threshold.
type CollectionGroup struct {
	Collection  *Collection `json:"collection"`
	Crew        []*Crew     `json:"crew"`
	Completes   bool        `json:"completes,omitempty"`
	NeededStars int         `json:"needed_stars,omitempty"`
	NeededCost  int         `json:"needed_cost,omitempty"`
}

// Combo is a set of collection names completable by one crew pool.
type Combo struct {
	Names []string `json:"names"`
	Crew  []string `json:"crew"`
	Count int      `json:"count"`
}

// Primary reports whether the combo carries the exact-match marker.
func (c Combo) Primary() bool {
	return len(c.Names) > 0 && strings.HasPrefix(c.Names[0], PrimaryMarker)
}

// Collections returns the combo names with the marker removed.
func (c Combo) Collections() []string {
	out := make([]string, len(c.Names))
	for i, n := range c.Names {
		out[i] = strings.TrimPrefix(n, PrimaryMarker)
	}
	return out
}

// Key joins the combo names for display and lookups.
func (c Combo) Key() string {
	return strings.Join(c.Names, ComboSeparator)
}

// OptimizedGroup is a collection with its links and ranked combos.
type OptimizedGroup struct {
	Name          string             `json:"name"`
	Collection    *Collection        `json:"collection"`
	Links         []*CollectionGroup `json:"links"`
	UniqueCrew    []*Crew            `json:"unique_crew"`
	CommonCrew    []*Crew            `json:"common_crew"`
	NeededStars   int                `json:"needed_stars"`
	NeededCost    int                `json:"needed_cost"`
	UniqueCost    int                `json:"unique_cost"`
	NonFulfilling int                `json:"non_fulfilling"`
	Combos        []Combo            `json:"combos"`
	ComboCost     []int              `json:"combo_cost,omitempty"`
}

// CostEntry records the crew and cost a combo resolves to.
type CostEntry struct {
	Collection string  `json:"collection"`
	Combo      Combo   `json:"combo"`
	Cost       int     `json:"cost"`
	Crew       []*Crew `json:"crew"`
}

// Signature returns the sorted crew symbol list used for deduplication.
func (e *CostEntry) Signature() string {
	return CrewSignature(e.Crew)
}

// CrewSignature builds the content key of a crew set.
func CrewSignature(crew []*Crew) string {
	syms := make([]string, len(crew))
	for i, c := range crew {
		syms[i] = c.Symbol
	}
	sort.Strings(syms)
	return strings.Join(syms, ",")
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// OptimizeRequest is the input for the collection_optimize tool.
type OptimizeRequest struct {
	PlayerID       string      `json:"player_id" validate:"required"`
	CollectionCrew []string    `json:"collection_crew,omitempty"`
	Filter         FilterProps `json:"filter"`
	MatchMode      MatchMode   `json:"match_mode,omitempty"`
	ByCost         bool        `json:"by_cost,omitempty"`
}

// Validate checks the request fields.
func (r *OptimizeRequest) Validate() error {
	return validator.New().Struct(r)
}

// OptimizeResponse is the output for the collection_optimize tool.
type OptimizeResponse struct {
	JobID      string             `json:"job_id"`
	Groups     []*OptimizedGroup  `json:"groups"`
	Maps       []*CollectionGroup `json:"maps"`
	CostMap    []*CostEntry       `json:"cost_map"`
	QueryStats QueryStats         `json:"query_stats"`
}

// QueryStats contains metadata about a query execution.
type QueryStats struct {
	CrewConsidered   int   `json:"crew_considered"`
	CollectionsFound int   `json:"collections_found"`
	GroupsReturned   int   `json:"groups_returned"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// CollectionLookupRequest is the input for the collection_lookup tool.
type CollectionLookupRequest struct {
	PlayerID     string   `json:"player_id" validate:"required"`
	CollectionID int      `json:"collection_id,omitempty" validate:"gte=0"`
	Name         string   `json:"name,omitempty"`
	Search       string   `json:"search,omitempty"`
	CostMode     CostMode `json:"cost_mode,omitempty" validate:"omitempty,oneof=normal sale"`
}

// Validate checks the request fields.
func (r *CollectionLookupRequest) Validate() error {
	return validator.New().Struct(r)
}

// CollectionLookupResponse is the output for the collection_lookup tool.
type CollectionLookupResponse struct {
	Collection    *Collection           `json:"collection,omitempty"`
	Crew          []*Crew               `json:"crew,omitempty"`
	Remaining     int                   `json:"remaining"`
	NeededStars   int                   `json:"needed_stars"`
	NeededCost    int                   `json:"needed_cost"`
	SearchResults []CollectionSearchHit `json:"search_results,omitempty"`
}

// CollectionSearchHit is a lightweight collection match for search results.
type CollectionSearchHit struct {
	CollectionID int    `json:"collection_id"`
	Name         string `json:"name"`
	Needed       int    `json:"needed"`
}

// CrewCollectionsRequest is the input for the crew_collections tool.
type CrewCollectionsRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Symbol   string `json:"symbol" validate:"required"`
}

// Validate checks the request fields.
func (r *CrewCollectionsRequest) Validate() error {
	return validator.New().Struct(r)
}

// CrewCollectionsResponse is the output for the crew_collections tool.
type CrewCollectionsResponse struct {
	Symbol      string               `json:"symbol"`
	Name        string               `json:"name,omitempty"`
	Collections []CrewCollectionInfo `json:"collections"`
}

// CrewCollectionInfo describes one collection a crew member counts toward.
type CrewCollectionInfo struct {
	Collection Collection `json:"collection"`
	Remaining  int        `json:"remaining"`
	Claimable  bool       `json:"claimable"`
}

// PlayerListResponse is the output for the player_list tool.
type PlayerListResponse struct {
	Players []PlayerInfo `json:"players"`
}

// PlayerInfo identifies an imported player.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Honor     int    `json:"honor"`
	UpdatedAt string `json:"updated_at"`
}
