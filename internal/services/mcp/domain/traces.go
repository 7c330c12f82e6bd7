package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Trace diagnosis statuses.
const (
	TraceStatusNoTrace      = "no_trace"
	TraceStatusFailed       = "failed"
	TraceStatusDidNotRun    = "did_not_run"
	TraceStatusRanOrUnknown = "ran_or_unknown"
)

// TraceDiagnosis summarizes why the most recent automation run failed, if it did.
type TraceDiagnosis struct {
	Status       string `json:"status" jsonschema:"no_trace, failed, did_not_run or ran_or_unknown"`
	FailureStage string `json:"failure_stage,omitempty" jsonschema:"action_or_runtime or condition"`
	Details      string `json:"details,omitempty" jsonschema:"error text or condition summary"`
	FailedStep   any    `json:"failed_step,omitempty" jsonschema:"step that failed, when reported"`
	Condition    any    `json:"condition,omitempty" jsonschema:"condition result that stopped the run"`
}

// TraceSample is the compact view of the most recent trace.
type TraceSample struct {
	Timestamp  any `json:"timestamp" jsonschema:"trace timestamp"`
	Result     any `json:"result" jsonschema:"trace result"`
	Error      any `json:"error" jsonschema:"trace error"`
	FailedStep any `json:"failed_step" jsonschema:"failed step"`
}

// traceList accepts [...], {traces: [...]} and {data: {traces: [...]}}.
func traceList(traces any) []any {
	switch v := traces.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v["traces"].([]any); ok {
			return list
		}
		if data, ok := v["data"].(map[string]any); ok {
			if list, ok := data["traces"].([]any); ok {
				return list
			}
		}
	}
	return nil
}

// MostRecentTrace picks the trace with the latest timestamp. Traces without a
// parseable timestamp sort last; ties keep their original order.
func MostRecentTrace(traces any) map[string]any {
	list := traceList(traces)
	if len(list) == 0 {
		return nil
	}
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b any) int {
		ta, tb := traceTime(a), traceTime(b)
		switch {
		case ta.After(tb):
			return -1
		case tb.After(ta):
			return 1
		default:
			return 0
		}
	})
	trace, _ := sorted[0].(map[string]any)
	if trace == nil {
		return map[string]any{}
	}
	return trace
}

func traceTime(trace any) time.Time {
	m, ok := trace.(map[string]any)
	if !ok {
		return time.Time{}
	}
	for _, key := range []string{"timestamp", "time", "created", "last_updated"} {
		value, ok := m[key]
		if !ok || value == nil {
			continue
		}
		// Recorded traces carry {start, finish}.
		if nested, ok := value.(map[string]any); ok {
			value = nested["start"]
		}
		text, ok := value.(string)
		if !ok {
			return time.Time{}
		}
		parsed, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return time.Time{}
		}
		return parsed
	}
	return time.Time{}
}

// SummarizeTrace inspects a trace for errors or failed conditions.
func SummarizeTrace(trace map[string]any) TraceDiagnosis {
	if trace == nil {
		return TraceDiagnosis{Status: TraceStatusNoTrace}
	}
	if err := firstOf(trace, "error"); err != nil {
		details, ok := err.(string)
		if !ok {
			encoded, encErr := json.Marshal(err)
			if encErr != nil {
				details = fmt.Sprint(err)
			} else {
				details = string(encoded)
			}
		}
		return TraceDiagnosis{
			Status:       TraceStatusFailed,
			FailureStage: "action_or_runtime",
			Details:      details,
			FailedStep:   firstOf(trace, "failed_step"),
		}
	}
	if cond, ok := firstOf(trace, "condition").(map[string]any); ok {
		if cond["result"] == false || cond["passed"] == false {
			return TraceDiagnosis{
				Status:       TraceStatusDidNotRun,
				FailureStage: "condition",
				Details:      "Condition(s) evaluated to false",
				Condition:    cond,
			}
		}
	}
	return TraceDiagnosis{Status: TraceStatusRanOrUnknown}
}

// NewTraceSample extracts the headline fields of a trace.
func NewTraceSample(trace map[string]any) *TraceSample {
	if trace == nil {
		return nil
	}
	result, _ := trace["result"].(map[string]any)
	sample := &TraceSample{
		Timestamp:  firstNonNil(trace["timestamp"], trace["time"], trace["created"]),
		Result:     trace["result"],
		Error:      trace["error"],
		FailedStep: trace["failed_step"],
	}
	if sample.Error == nil && result != nil {
		sample.Error = result["error"]
	}
	if sample.FailedStep == nil && result != nil {
		sample.FailedStep = result["failed_step"]
	}
	return sample
}

// firstOf looks a key up on the trace and its result, data and trace objects.
func firstOf(trace map[string]any, key string) any {
	if value := trace[key]; value != nil {
		return value
	}
	for _, nested := range []string{"result", "data", "trace"} {
		if inner, ok := trace[nested].(map[string]any); ok {
			if value := inner[key]; value != nil {
				return value
			}
		}
	}
	return nil
}

func firstNonNil(values ...any) any {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}
