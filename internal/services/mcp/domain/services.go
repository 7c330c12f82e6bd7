package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/ha-diag/internal/platform/logging"
	"github.com/louisbranch/ha-diag/internal/platform/requestctx"
	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/louisbranch/ha-diag/internal/services/lister"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	defaultRepairsLimit = 200
	maxRepairsLimit     = 500
)

// NoInput is the input of tools that take no arguments.
type NoInput struct{}

// ListServicesResult represents the MCP tool output for ha_list_services.
type ListServicesResult struct {
	Services []homeassistant.ServiceDomain `json:"services" jsonschema:"services grouped by domain"`
}

// DiagListServicesInput represents the MCP tool input for ha_diag_list_services.
type DiagListServicesInput struct {
	Emit *bool `json:"emit,omitempty" jsonschema:"fire the ha_diag_result event (default true)"`
}

// DiagListServicesResult represents the MCP tool output for ha_diag_list_services.
type DiagListServicesResult struct {
	Title   string         `json:"title" jsonschema:"diagnostic title"`
	Text    lister.Listing `json:"text" jsonschema:"sorted service names per domain"`
	Emitted bool           `json:"emitted" jsonschema:"whether the ha_diag_result event was fired"`
}

// HostInfoResult represents the MCP tool output for supervisor_host_info.
type HostInfoResult struct {
	HostInfo any `json:"host_info" jsonschema:"Supervisor host information"`
}

// ListRepairsInput represents the MCP tool input for ha_list_repairs.
type ListRepairsInput struct {
	IncludeRaw *bool `json:"include_raw,omitempty" jsonschema:"include raw issue payloads (default false)"`
	Limit      *int  `json:"limit,omitempty" jsonschema:"maximum issues to return (default 200, max 500)"`
}

// RepairIssue is the projected view of one Repairs issue.
type RepairIssue struct {
	Domain                  any `json:"domain" jsonschema:"integration domain"`
	IssueID                 any `json:"issue_id" jsonschema:"issue identifier"`
	Severity                any `json:"severity" jsonschema:"issue severity"`
	IsFixable               any `json:"is_fixable" jsonschema:"whether a repair flow exists"`
	IsPersistent            any `json:"is_persistent" jsonschema:"whether the issue survives restarts"`
	Created                 any `json:"created" jsonschema:"creation time"`
	BreaksInHAVersion       any `json:"breaks_in_ha_version" jsonschema:"version that will break"`
	LearnMoreURL            any `json:"learn_more_url" jsonschema:"documentation link"`
	TranslationKey          any `json:"translation_key" jsonschema:"translation key"`
	TranslationPlaceholders any `json:"translation_placeholders" jsonschema:"translation placeholders"`
	Ignored                 any `json:"ignored" jsonschema:"whether the issue is ignored"`
	Dismissed               any `json:"dismissed" jsonschema:"whether the issue is dismissed"`
}

// ListRepairsResult represents the MCP tool output for ha_list_repairs.
type ListRepairsResult struct {
	Count  int           `json:"count" jsonschema:"number of issues returned"`
	Issues []RepairIssue `json:"issues" jsonschema:"projected issues"`
	Raw    any           `json:"raw,omitempty" jsonschema:"raw repairs/list_issues result"`
}

// ListServicesTool defines the MCP tool schema for listing services.
func ListServicesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_list_services",
		Description: "List all Home Assistant services grouped by domain.",
	}
}

// DiagListServicesTool defines the MCP tool schema for the service lister diagnostic.
func DiagListServicesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_diag_list_services",
		Description: "List every service name per domain, sorted, and fire it as an ha_diag_result event titled \"HA Diag: List services\".",
	}
}

// HostInfoTool defines the MCP tool schema for Supervisor host info.
func HostInfoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "supervisor_host_info",
		Description: "Get host/system information from the Home Assistant Supervisor (works only when using Supervisor proxy mode).",
	}
}

// ListRepairsTool defines the MCP tool schema for listing repairs.
func ListRepairsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_list_repairs",
		Description: "List current Home Assistant Repairs (Settings -> Repairs).",
	}
}

// ListServicesHandler returns the raw grouped service registry.
func ListServicesHandler(client HomeAssistant) mcp.ToolHandlerFor[NoInput, ListServicesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, ListServicesResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ListServicesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		domains, err := client.Services(ctx)
		if err != nil {
			return nil, ListServicesResult{}, fmt.Errorf("list services: %w", err)
		}
		if domains == nil {
			domains = []homeassistant.ServiceDomain{}
		}
		for i := range domains {
			if domains[i].Services == nil {
				domains[i].Services = map[string]any{}
			}
		}
		return CallToolResultWithMetadata(invocationID), ListServicesResult{Services: domains}, nil
	}
}

// DiagListServicesHandler runs the service lister against the host and, unless
// emit is false, fires the ha_diag_result event.
func DiagListServicesHandler(client HomeAssistant, logger *zap.Logger) mcp.ToolHandlerFor[DiagListServicesInput, DiagListServicesResult] {
	logger = logging.OrNop(logger)
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DiagListServicesInput) (*mcp.CallToolResult, DiagListServicesResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, DiagListServicesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		ctx = requestctx.WithInvocationID(ctx, invocationID)
		run := lister.New(registryReader{client: client}, client, logger.With(zap.String("invocation_id", invocationID)))

		emit := boolOr(input.Emit, true)
		var listing lister.Listing
		if emit {
			listing, err = run.Run(ctx)
		} else {
			listing, err = run.List(ctx)
		}
		if err != nil {
			return nil, DiagListServicesResult{}, err
		}

		payload := lister.NewPayload(listing)
		return CallToolResultWithMetadata(invocationID), DiagListServicesResult{
			Title:   payload.Title,
			Text:    payload.Text,
			Emitted: emit,
		}, nil
	}
}

// HostInfoHandler returns Supervisor host information.
func HostInfoHandler(client HomeAssistant) mcp.ToolHandlerFor[NoInput, HostInfoResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, HostInfoResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, HostInfoResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		info, err := client.SupervisorHostInfo(ctx)
		if err != nil {
			return nil, HostInfoResult{}, fmt.Errorf("supervisor host info: %w", err)
		}
		return CallToolResultWithMetadata(invocationID), HostInfoResult{HostInfo: info}, nil
	}
}

// ListRepairsHandler lists open Repairs issues over the WebSocket API.
func ListRepairsHandler(client HomeAssistant) mcp.ToolHandlerFor[ListRepairsInput, ListRepairsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListRepairsInput) (*mcp.CallToolResult, ListRepairsResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ListRepairsResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		limit := intOr(input.Limit, defaultRepairsLimit)
		if err := checkRange("limit", limit, 1, maxRepairsLimit); err != nil {
			return nil, ListRepairsResult{}, err
		}

		raw, err := client.RepairsListIssues(ctx)
		if err != nil {
			return nil, ListRepairsResult{}, fmt.Errorf("list repairs: %w", err)
		}

		issues := make([]RepairIssue, 0, min(limit, len(raw.Issues)))
		for _, issue := range raw.Issues {
			if len(issues) == limit {
				break
			}
			issues = append(issues, projectRepairIssue(issue))
		}
		result := ListRepairsResult{Count: len(issues), Issues: issues}
		if boolOr(input.IncludeRaw, false) {
			result.Raw = raw
		}
		return CallToolResultWithMetadata(invocationID), result, nil
	}
}

func projectRepairIssue(issue map[string]any) RepairIssue {
	created := issue["created"]
	if created == nil {
		created = issue["created_at"]
	}
	return RepairIssue{
		Domain:                  issue["domain"],
		IssueID:                 issue["issue_id"],
		Severity:                issue["severity"],
		IsFixable:               issue["is_fixable"],
		IsPersistent:            issue["is_persistent"],
		Created:                 created,
		BreaksInHAVersion:       issue["breaks_in_ha_version"],
		LearnMoreURL:            issue["learn_more_url"],
		TranslationKey:          issue["translation_key"],
		TranslationPlaceholders: issue["translation_placeholders"],
		Ignored:                 issue["ignored"],
		Dismissed:               issue["dismissed"],
	}
}
