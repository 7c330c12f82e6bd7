package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultFindLimit = 10
	maxFindLimit     = 50
	defaultListLimit = 100
	maxListLimit     = 500
)

// EntityInput names a single entity.
type EntityInput struct {
	EntityID string `json:"entity_id" jsonschema:"the entity_id to query (e.g. light.living_room)"`
}

// GetStateResult represents the MCP tool output for ha_get_state.
type GetStateResult struct {
	State homeassistant.EntityState `json:"state" jsonschema:"current entity state and attributes"`
}

// DiagnoseEntityResult represents the MCP tool output for diagnose_entity.
type DiagnoseEntityResult struct {
	EntityID    string         `json:"entity_id" jsonschema:"entity identifier"`
	State       string         `json:"state" jsonschema:"current state"`
	LastChanged string         `json:"last_changed" jsonschema:"when the state last changed"`
	LastUpdated string         `json:"last_updated" jsonschema:"when the entity last updated"`
	Attributes  map[string]any `json:"attributes" jsonschema:"entity attributes"`
	Problem     *string        `json:"problem" jsonschema:"detected problem, null when healthy"`
}

// FindEntitiesInput represents the MCP tool input for ha_find_entities.
type FindEntitiesInput struct {
	Query   string   `json:"query" jsonschema:"text matched against entity_id and friendly_name"`
	Domains []string `json:"domains,omitempty" jsonschema:"optional domains to filter by (e.g. automation, light)"`
	Limit   *int     `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 50)"`
}

// EntityMatch is one ha_find_entities result.
type EntityMatch struct {
	EntityID          string `json:"entity_id" jsonschema:"entity identifier"`
	Domain            string `json:"domain" jsonschema:"entity domain"`
	Name              any    `json:"name" jsonschema:"friendly name"`
	State             string `json:"state" jsonschema:"current state"`
	DeviceClass       any    `json:"device_class" jsonschema:"device class attribute"`
	UnitOfMeasurement any    `json:"unit_of_measurement" jsonschema:"unit of measurement attribute"`
	AreaID            any    `json:"area_id" jsonschema:"area identifier attribute"`
}

// FindEntitiesResult represents the MCP tool output for ha_find_entities.
type FindEntitiesResult struct {
	Query   string        `json:"query" jsonschema:"query as given"`
	Domains []string      `json:"domains" jsonschema:"domain filter as given"`
	Count   int           `json:"count" jsonschema:"number of results"`
	Results []EntityMatch `json:"results" jsonschema:"matching entities"`
}

// ListEntitiesInput represents the MCP tool input for ha_list_entities.
type ListEntitiesInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"optional domain filter (e.g. automation, light, sensor)"`
	Limit  *int   `json:"limit,omitempty" jsonschema:"maximum number of results (default 100, max 500)"`
}

// EntitySummary is one ha_list_entities result.
type EntitySummary struct {
	EntityID string `json:"entity_id" jsonschema:"entity identifier"`
	Name     any    `json:"name" jsonschema:"friendly name"`
	State    string `json:"state" jsonschema:"current state"`
}

// ListEntitiesResult represents the MCP tool output for ha_list_entities.
type ListEntitiesResult struct {
	Domain  *string         `json:"domain" jsonschema:"domain filter, null when absent"`
	Count   int             `json:"count" jsonschema:"number of results"`
	Results []EntitySummary `json:"results" jsonschema:"entities"`
	Note    *string         `json:"note" jsonschema:"truncation note, null when complete"`
}

// GetStateTool defines the MCP tool schema for reading one entity.
func GetStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_get_state",
		Description: "Get the current state and attributes of a Home Assistant entity by entity_id.",
	}
}

// DiagnoseEntityTool defines the MCP tool schema for entity diagnosis.
func DiagnoseEntityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "diagnose_entity",
		Description: "Return a compact diagnostic summary for an entity, including availability and last update times.",
	}
}

// FindEntitiesTool defines the MCP tool schema for entity search.
func FindEntitiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_find_entities",
		Description: "Search Home Assistant entities by query (matches entity_id and friendly_name). Use this to find the right entity_id before diagnosing automations or entities.",
	}
}

// ListEntitiesTool defines the MCP tool schema for listing entities.
func ListEntitiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_list_entities",
		Description: "List Home Assistant entities, optionally filtered by domain (e.g. automation, light, sensor).",
	}
}

// GetStateHandler reads one entity state.
func GetStateHandler(client HomeAssistant) mcp.ToolHandlerFor[EntityInput, GetStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EntityInput) (*mcp.CallToolResult, GetStateResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, GetStateResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireEntityID(input.EntityID)
		if err != nil {
			return nil, GetStateResult{}, err
		}
		state, err := client.State(ctx, entityID)
		if err != nil {
			return nil, GetStateResult{}, fmt.Errorf("get state: %w", err)
		}
		if state.Attributes == nil {
			state.Attributes = map[string]any{}
		}
		return CallToolResultWithMetadata(invocationID), GetStateResult{State: state}, nil
	}
}

// DiagnoseEntityHandler summarizes availability of one entity.
func DiagnoseEntityHandler(client HomeAssistant) mcp.ToolHandlerFor[EntityInput, DiagnoseEntityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EntityInput) (*mcp.CallToolResult, DiagnoseEntityResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, DiagnoseEntityResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireEntityID(input.EntityID)
		if err != nil {
			return nil, DiagnoseEntityResult{}, err
		}
		state, err := client.State(ctx, entityID)
		if err != nil {
			return nil, DiagnoseEntityResult{}, fmt.Errorf("get state: %w", err)
		}

		result := DiagnoseEntityResult{
			EntityID:    state.EntityID,
			State:       state.State,
			LastChanged: state.LastChanged,
			LastUpdated: state.LastUpdated,
			Attributes:  state.Attributes,
			Problem:     entityProblem(state.State),
		}
		if result.Attributes == nil {
			result.Attributes = map[string]any{}
		}
		return CallToolResultWithMetadata(invocationID), result, nil
	}
}

// FindEntitiesHandler searches entity ids and friendly names.
func FindEntitiesHandler(client HomeAssistant) mcp.ToolHandlerFor[FindEntitiesInput, FindEntitiesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input FindEntitiesInput) (*mcp.CallToolResult, FindEntitiesResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, FindEntitiesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		query := strings.ToLower(strings.TrimSpace(input.Query))
		if query == "" {
			return nil, FindEntitiesResult{}, fmt.Errorf("query is required")
		}
		limit := intOr(input.Limit, defaultFindLimit)
		if err := checkRange("limit", limit, 1, maxFindLimit); err != nil {
			return nil, FindEntitiesResult{}, err
		}

		states, err := client.States(ctx)
		if err != nil {
			return nil, FindEntitiesResult{}, fmt.Errorf("list states: %w", err)
		}

		results := make([]EntityMatch, 0, limit)
		for _, state := range states {
			if len(results) == limit {
				break
			}
			entityID := strings.ToLower(state.EntityID)
			if len(input.Domains) > 0 && !slices.Contains(input.Domains, homeassistant.EntityDomain(entityID)) {
				continue
			}
			friendly := strings.ToLower(attributeString(state, "friendly_name"))
			if !strings.Contains(entityID, query) && !strings.Contains(friendly, query) {
				continue
			}
			results = append(results, EntityMatch{
				EntityID:          state.EntityID,
				Domain:            state.Domain(),
				Name:              state.Attribute("friendly_name"),
				State:             state.State,
				DeviceClass:       state.Attribute("device_class"),
				UnitOfMeasurement: state.Attribute("unit_of_measurement"),
				AreaID:            state.Attribute("area_id"),
			})
		}

		domains := input.Domains
		if domains == nil {
			domains = []string{}
		}
		return CallToolResultWithMetadata(invocationID), FindEntitiesResult{
			Query:   input.Query,
			Domains: domains,
			Count:   len(results),
			Results: results,
		}, nil
	}
}

// ListEntitiesHandler lists entities, optionally restricted to one domain.
func ListEntitiesHandler(client HomeAssistant) mcp.ToolHandlerFor[ListEntitiesInput, ListEntitiesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListEntitiesInput) (*mcp.CallToolResult, ListEntitiesResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ListEntitiesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		limit := intOr(input.Limit, defaultListLimit)
		if err := checkRange("limit", limit, 1, maxListLimit); err != nil {
			return nil, ListEntitiesResult{}, err
		}

		states, err := client.States(ctx)
		if err != nil {
			return nil, ListEntitiesResult{}, fmt.Errorf("list states: %w", err)
		}

		domain := strings.TrimSpace(input.Domain)
		results := make([]EntitySummary, 0, min(limit, len(states)))
		for _, state := range states {
			if len(results) == limit {
				break
			}
			if domain != "" && !strings.HasPrefix(state.EntityID, domain+".") {
				continue
			}
			results = append(results, EntitySummary{
				EntityID: state.EntityID,
				Name:     state.Attribute("friendly_name"),
				State:    state.State,
			})
		}

		result := ListEntitiesResult{Count: len(results), Results: results}
		if domain != "" {
			result.Domain = &domain
		}
		// Truncation compares against every state, not just the filtered ones.
		if len(states) > limit {
			note := fmt.Sprintf("Truncated to %d. Increase limit if needed.", limit)
			result.Note = &note
		}
		return CallToolResultWithMetadata(invocationID), result, nil
	}
}

func requireEntityID(value string) (string, error) {
	entityID := strings.TrimSpace(value)
	if entityID == "" {
		return "", fmt.Errorf("entity_id is required")
	}
	return entityID, nil
}

func entityProblem(state string) *string {
	var problem string
	switch state {
	case "unavailable":
		problem = "Entity is unavailable"
	case "unknown":
		problem = "Entity state is unknown"
	default:
		return nil
	}
	return &problem
}

func attributeString(state homeassistant.EntityState, name string) string {
	value := state.Attribute(name)
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
