package domain

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 168
	logbookSampleSize  = 20
)

// AutomationInput names one automation entity.
type AutomationInput struct {
	AutomationEntityID string `json:"automation_entity_id" jsonschema:"the automation entity_id (e.g. automation.porch_lights)"`
}

// DiagnoseAutomationInput represents the MCP tool input for diagnose_automation.
type DiagnoseAutomationInput struct {
	AutomationEntityID string   `json:"automation_entity_id" jsonschema:"the automation entity_id to diagnose"`
	SinceHours         *float64 `json:"since_hours,omitempty" jsonschema:"hours to look back (default 24, max 168)"`
	IncludeLogbook     *bool    `json:"include_logbook,omitempty" jsonschema:"include logbook entries (default true)"`
	IncludeHistory     *bool    `json:"include_history,omitempty" jsonschema:"include history data (default false)"`
	IncludeRawTraces   *bool    `json:"include_raw_traces,omitempty" jsonschema:"include raw trace data (default false)"`
	IncludeConfig      *bool    `json:"include_config,omitempty" jsonschema:"include automation configuration (default true)"`
	IncludeRawConfig   *bool    `json:"include_raw_config,omitempty" jsonschema:"include unredacted configuration (default false)"`
}

// DiagnosisWindow is the time range inspected by diagnose_automation.
type DiagnosisWindow struct {
	Start string  `json:"start" jsonschema:"window start (ISO 8601)"`
	End   string  `json:"end" jsonschema:"window end (ISO 8601)"`
	Hours float64 `json:"hours" jsonschema:"window length in hours"`
}

// AutomationStateSummary is the automation entity state relevant to a diagnosis.
type AutomationStateSummary struct {
	State         string `json:"state" jsonschema:"on or off"`
	LastTriggered any    `json:"last_triggered" jsonschema:"last trigger time"`
	Mode          any    `json:"mode" jsonschema:"run mode"`
	Current       any    `json:"current" jsonschema:"number of runs in progress"`
	FriendlyName  any    `json:"friendly_name" jsonschema:"friendly name"`
	InternalID    any    `json:"internal_id" jsonschema:"automation config id"`
}

// DiagnosisEvidence carries the raw material behind a diagnosis.
type DiagnosisEvidence struct {
	TraceSample   any `json:"trace_sample" jsonschema:"most recent trace summary"`
	RawTraces     any `json:"raw_traces,omitempty" jsonschema:"raw traces, when requested"`
	LogbookSample any `json:"logbook_sample" jsonschema:"first logbook entries in the window"`
	HistorySample any `json:"history_sample" jsonschema:"state history in the window"`
}

// DiagnoseAutomationResult represents the MCP tool output for diagnose_automation.
type DiagnoseAutomationResult struct {
	Automation string                 `json:"automation" jsonschema:"automation entity_id"`
	Window     DiagnosisWindow        `json:"window" jsonschema:"inspected time window"`
	State      AutomationStateSummary `json:"state" jsonschema:"automation state summary"`
	Config     any                    `json:"config" jsonschema:"automation configuration, sanitized unless raw was requested"`
	Diagnosis  TraceDiagnosis         `json:"diagnosis" jsonschema:"trace failure summary"`
	Evidence   DiagnosisEvidence      `json:"evidence" jsonschema:"supporting evidence"`
}

// AutomationConfigResult represents the MCP tool output for ha_get_automation_config.
type AutomationConfigResult struct {
	Config map[string]any `json:"config" jsonschema:"automation configuration"`
}

// YAMLSnippetInput represents the MCP tool input for ha_get_automation_yaml_snippet.
type YAMLSnippetInput struct {
	AutomationEntityID string `json:"automation_entity_id" jsonschema:"the automation entity_id"`
	IncludeRawConfig   *bool  `json:"include_raw_config,omitempty" jsonschema:"return unredacted config (default false)"`
}

// YAMLSnippetResult represents the MCP tool output for ha_get_automation_yaml_snippet.
type YAMLSnippetResult struct {
	Automation  string `json:"automation" jsonschema:"automation entity_id"`
	YAMLSnippet string `json:"yaml_snippet" jsonschema:"automation config rendered as YAML"`
	Raw         bool   `json:"raw" jsonschema:"whether the config is unredacted"`
}

// DiagnoseAutomationTool defines the MCP tool schema for automation diagnosis.
func DiagnoseAutomationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "diagnose_automation",
		Description: "Explain why a Home Assistant automation did or did not run in a given time window, using automation state, traces, and logbook/history context.",
	}
}

// AutomationConfigTool defines the MCP tool schema for reading automation config.
func AutomationConfigTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_get_automation_config",
		Description: "Fetch the full automation configuration (triggers, conditions, actions) for a given automation entity_id.",
	}
}

// YAMLSnippetTool defines the MCP tool schema for the automation YAML snippet.
func YAMLSnippetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ha_get_automation_yaml_snippet",
		Description: "Return a YAML snippet for an automation (trigger/condition/action/mode/etc). Use this instead of asking the user to open automations.yaml.",
	}
}

// DiagnoseAutomationHandler explains the most recent run of an automation.
// The automation state is required; every other evidence source degrades to
// an {"error": ...} object when it cannot be fetched.
func DiagnoseAutomationHandler(client HomeAssistant, now func() time.Time) mcp.ToolHandlerFor[DiagnoseAutomationInput, DiagnoseAutomationResult] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DiagnoseAutomationInput) (*mcp.CallToolResult, DiagnoseAutomationResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, DiagnoseAutomationResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireAutomationID(input.AutomationEntityID)
		if err != nil {
			return nil, DiagnoseAutomationResult{}, err
		}
		hours := float64(defaultWindowHours)
		if input.SinceHours != nil {
			hours = *input.SinceHours
		}
		if hours < 1 || hours > maxWindowHours {
			return nil, DiagnoseAutomationResult{}, fmt.Errorf("since_hours must be between 1 and %d", maxWindowHours)
		}

		end := now()
		start := end.Add(-time.Duration(hours * float64(time.Hour)))
		window := DiagnosisWindow{Start: isoTime(start), End: isoTime(end), Hours: hours}

		var (
			state   homeassistant.EntityState
			traces  any
			trace   map[string]any
			logbook any
			history any
			config  any
		)
		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			var err error
			state, err = client.State(groupCtx, entityID)
			if err != nil {
				return fmt.Errorf("get automation state: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			raw, err := client.AutomationTraces(groupCtx, entityID)
			if err != nil {
				traces = errorEvidence(err)
				return nil
			}
			traces = raw
			trace = MostRecentTrace(raw)
			return nil
		})
		if boolOr(input.IncludeLogbook, true) {
			group.Go(func() error {
				entries, err := client.Logbook(groupCtx, homeassistant.LogbookQuery{Start: window.Start, End: window.End, EntityID: entityID})
				if err != nil {
					logbook = errorEvidence(err)
					return nil
				}
				logbook = entries
				return nil
			})
		}
		if boolOr(input.IncludeHistory, false) {
			group.Go(func() error {
				entries, err := client.HistoryPeriod(groupCtx, homeassistant.HistoryQuery{Start: window.Start, End: window.End, EntityIDs: []string{entityID}})
				if err != nil {
					history = errorEvidence(err)
					return nil
				}
				history = entries
				return nil
			})
		}
		if boolOr(input.IncludeConfig, true) {
			raw := boolOr(input.IncludeRawConfig, false)
			group.Go(func() error {
				cfg, err := client.AutomationConfig(groupCtx, entityID)
				if err != nil {
					config = errorEvidence(err)
					return nil
				}
				if raw {
					config = cfg
				} else {
					config = homeassistant.SanitizeAutomationConfig(cfg)
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, DiagnoseAutomationResult{}, err
		}

		result := DiagnoseAutomationResult{
			Automation: entityID,
			Window:     window,
			State: AutomationStateSummary{
				State:         state.State,
				LastTriggered: state.Attribute("last_triggered"),
				Mode:          state.Attribute("mode"),
				Current:       state.Attribute("current"),
				FriendlyName:  state.Attribute("friendly_name"),
				InternalID:    state.Attribute("id"),
			},
			Config:    config,
			Diagnosis: SummarizeTrace(trace),
			Evidence: DiagnosisEvidence{
				LogbookSample: sampleList(logbook, logbookSampleSize),
				HistorySample: history,
			},
		}
		if sample := NewTraceSample(trace); sample != nil {
			result.Evidence.TraceSample = sample
		}
		if boolOr(input.IncludeRawTraces, false) {
			result.Evidence.RawTraces = traces
		}
		return CallToolResultWithMetadata(invocationID), result, nil
	}
}

// AutomationConfigHandler returns the stored automation configuration.
func AutomationConfigHandler(client HomeAssistant) mcp.ToolHandlerFor[AutomationInput, AutomationConfigResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AutomationInput) (*mcp.CallToolResult, AutomationConfigResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, AutomationConfigResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireAutomationID(input.AutomationEntityID)
		if err != nil {
			return nil, AutomationConfigResult{}, err
		}
		cfg, err := client.AutomationConfig(ctx, entityID)
		if err != nil {
			return nil, AutomationConfigResult{}, fmt.Errorf("get automation config: %w", err)
		}
		if cfg == nil {
			cfg = map[string]any{}
		}
		return CallToolResultWithMetadata(invocationID), AutomationConfigResult{Config: cfg}, nil
	}
}

// YAMLSnippetHandler renders an automation config as YAML. The snippet is
// also returned as the text content of the result.
func YAMLSnippetHandler(client HomeAssistant) mcp.ToolHandlerFor[YAMLSnippetInput, YAMLSnippetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input YAMLSnippetInput) (*mcp.CallToolResult, YAMLSnippetResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, YAMLSnippetResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		entityID, err := requireAutomationID(input.AutomationEntityID)
		if err != nil {
			return nil, YAMLSnippetResult{}, err
		}
		cfg, err := client.AutomationConfig(ctx, entityID)
		if err != nil {
			return nil, YAMLSnippetResult{}, fmt.Errorf("get automation config: %w", err)
		}

		raw := boolOr(input.IncludeRawConfig, false)
		data := cfg
		if !raw {
			data = homeassistant.SanitizeAutomationConfig(cfg)
		}
		snippet, err := renderYAML(data)
		if err != nil {
			return nil, YAMLSnippetResult{}, err
		}

		toolResult := CallToolResultWithMetadata(invocationID)
		toolResult.Content = []mcp.Content{&mcp.TextContent{Text: snippet}}
		return toolResult, YAMLSnippetResult{Automation: entityID, YAMLSnippet: snippet, Raw: raw}, nil
	}
}

func renderYAML(value any) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return "", fmt.Errorf("render yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("render yaml: %w", err)
	}
	return buf.String(), nil
}

func requireAutomationID(value string) (string, error) {
	entityID := strings.TrimSpace(value)
	if entityID == "" {
		return "", fmt.Errorf("automation_entity_id is required")
	}
	return entityID, nil
}

// sampleList keeps the first n entries of a list and passes anything else through.
func sampleList(value any, n int) any {
	list, ok := value.([]any)
	if !ok || len(list) <= n {
		return value
	}
	return list[:n]
}
