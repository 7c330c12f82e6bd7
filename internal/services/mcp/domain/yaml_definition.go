package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/ha-diag/internal/platform/timeouts"
	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrAddonURLMissing is returned when no add-on URL is configured for YAML lookups.
var ErrAddonURLMissing = errors.New("HA_DIAG_ADDON_URL is not set; point it to the add-on base URL (e.g. http://<ha-ip>:<port>)")

// YAMLDefinitionFetcher resolves a YAML-managed automation by item id.
type YAMLDefinitionFetcher interface {
	AutomationYAML(ctx context.Context, itemID string) (any, error)
}

// AddonClient reads automation YAML through the add-on HTTP server.
type AddonClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// AutomationYAML fetches /yaml/automation/{itemID} from the add-on.
func (c AddonClient) AutomationYAML(ctx context.Context, itemID string) (any, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, ErrAddonURLMissing
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.HARequest}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/yaml/automation/"+url.PathEscape(itemID), nil)
	if err != nil {
		return nil, fmt.Errorf("build add-on request: %w", err)
	}
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("add-on request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read add-on response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("add-on returned %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	var definition any
	if err := json.Unmarshal(body, &definition); err != nil {
		return nil, fmt.Errorf("decode add-on response: %w", err)
	}
	return definition, nil
}

// YAMLDefinitionResult represents the MCP tool output for ha_get_automation_yaml_definition.
type YAMLDefinitionResult struct {
	YAMLDefinition any `json:"yaml_definition" jsonschema:"lookup result with file, index, match and automation"`
}

// YAMLDefinitionTool defines the MCP tool schema for YAML-managed automations.
func YAMLDefinitionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_get_automation_yaml_definition",
		Description: "Fetch the YAML definition of an automation by item id (fallback for YAML-managed automations).",
	}
}

// YAMLDefinitionHandler looks up a YAML-managed automation through the add-on.
func YAMLDefinitionHandler(fetcher YAMLDefinitionFetcher) mcp.ToolHandlerFor[AutomationInput, YAMLDefinitionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AutomationInput) (*mcp.CallToolResult, YAMLDefinitionResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, YAMLDefinitionResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireAutomationID(input.AutomationEntityID)
		if err != nil {
			return nil, YAMLDefinitionResult{}, err
		}
		if fetcher == nil {
			return nil, YAMLDefinitionResult{}, ErrAddonURLMissing
		}
		definition, err := fetcher.AutomationYAML(ctx, homeassistant.AutomationItemID(entityID))
		if err != nil {
			return nil, YAMLDefinitionResult{}, err
		}
		return CallToolResultWithMetadata(invocationID), YAMLDefinitionResult{YAMLDefinition: definition}, nil
	}
}
