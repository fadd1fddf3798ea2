package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Default              any                 `json:"default,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Maximum              *float64            `json:"maximum,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *Property           `json:"additionalProperties,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		optimizeTool(),
		collectionLookupTool(),
		crewCollectionsTool(),
		playerListTool(),
	}
}

var playerIDProperty = Property{
	Type:        "string",
	Description: "ID of an imported player",
}

var costModeProperty = Property{
	Type:        "string",
	Description: "Honor price table used to value missing stars",
	Enum:        []string{string(collections.CostModeNormal), string(collections.CostModeSale)},
	Default:     string(collections.CostModeNormal),
}

func optimizeTool() ToolDefinition {
	minRarity := 1.0
	maxRarity := 5.0

	return ToolDefinition{
		Name:        "collection_optimize",
		Description: "Find which collections can be completed together with shared crew. Returns ranked collection groups with their crew combinations, the qualifying collections, and the cheapest crew set per combination.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"player_id": playerIDProperty,
				"collection_crew": {
					Type:        "array",
					Description: "Crew symbols to consider (defaults to the whole roster)",
					Items:       &Property{Type: "string"},
				},
				"match_mode": {
					Type:        "string",
					Description: "Which combinations to return: exact threshold matches, under-threshold matches, or both. Other values behave as normal",
					Enum:        []string{string(collections.MatchNormal), string(collections.MatchExactOnly), string(collections.MatchInexactOnly)},
					Default:     string(collections.MatchNormal),
				},
				"by_cost": {
					Type:        "boolean",
					Description: "Rank groups by honor cost efficiency instead of combination quality",
					Default:     false,
				},
				"filter": {
					Type:        "object",
					Description: "Crew and collection filters",
					Properties: map[string]Property{
						"cost_mode": costModeProperty,
						"short": {
							Type:        "boolean",
							Description: "Score rewards by kind instead of quantity",
						},
						"map_filter": {
							Type: "object",
							Properties: map[string]Property{
								"collections_filter": {
									Type:        "array",
									Description: "Collection IDs to focus on",
									Items:       &Property{Type: "integer"},
								},
								"reward_filter": {
									Type:        "array",
									Description: "Reward symbols to prefer",
									Items:       &Property{Type: "string"},
								},
							},
						},
						"owned_filter": {
							Type:        "string",
							Description: "Owned state filter",
							Enum:        []string{
								collections.OwnedFilterOwned, collections.OwnedFilterUnowned,
								collections.OwnedFilterFullyFused, collections.OwnedFilterNotFullyFused,
							},
						},
						"search_filter": {
							Type:        "string",
							Description: "Semicolon separated crew names to prioritize",
						},
						"favorited": {
							Type:        "boolean",
							Description: "Prioritize favorite crew",
						},
						"rarity_filter": {
							Type:        "array",
							Description: "Max rarities to keep",
							Items:       &Property{Type: "integer", Minimum: &minRarity, Maximum: &maxRarity},
						},
					},
				},
			},
			Required: []string{"player_id"},
		},
	}
}

func collectionLookupTool() ToolDefinition {
	return ToolDefinition{
		Name:        "collection_lookup",
		Description: "Look up a collection by ID, exact name or search term. Returns the collection, the owned crew that can still count toward it, and the stars and honor needed to complete it.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"player_id": playerIDProperty,
				"collection_id": {
					Type:        "integer",
					Description: "Exact collection ID to look up",
				},
				"name": {
					Type:        "string",
					Description: "Exact collection name",
				},
				"search": {
					Type:        "string",
					Description: "Search term for collection name (alternative to collection_id)",
				},
				"cost_mode": costModeProperty,
			},
			Required: []string{"player_id"},
		},
	}
}

func crewCollectionsTool() ToolDefinition {
	return ToolDefinition{
		Name:        "crew_collections",
		Description: "List the collections a crew member counts toward, with how many crew each still needs for its next milestone.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"player_id": playerIDProperty,
				"symbol": {
					Type:        "string",
					Description: "Crew symbol",
				},
			},
			Required: []string{"player_id", "symbol"},
		},
	}
}

func playerListTool() ToolDefinition {
	return ToolDefinition{
		Name:        "player_list",
		Description: "List imported players.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

// validator is implemented by all tool requests.
type validator interface {
	Validate() error
}

// decode unmarshals and validates tool arguments.
func decode(args json.RawMessage, req validator) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// Tool handlers

func (s *Server) toolOptimize(ctx context.Context, args json.RawMessage) (any, error) {
	var req collections.OptimizeRequest
	if err := decode(args, &req); err != nil {
		return nil, err
	}
	return s.engine.Optimize(ctx, req)
}

func (s *Server) toolCollectionLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req collections.CollectionLookupRequest
	if err := decode(args, &req); err != nil {
		return nil, err
	}
	return s.engine.CollectionLookup(ctx, req)
}

func (s *Server) toolCrewCollections(ctx context.Context, args json.RawMessage) (any, error) {
	var req collections.CrewCollectionsRequest
	if err := decode(args, &req); err != nil {
		return nil, err
	}
	return s.engine.CrewCollections(ctx, req)
}
