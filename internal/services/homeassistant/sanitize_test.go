package homeassistant

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSanitizeAutomationConfigRedactsSecrets(t *testing.T) {
	cfg := map[string]any{
		"id":    "1700000000000",
		"name":  "Notify on door",
		"mode":  "single",
		"extra": "dropped",
		"trigger": []any{
			map[string]any{"platform": "webhook", "webhook_id": "secret-hook"},
		},
		"action": []any{
			map[string]any{
				"service": "rest_command.call",
				"data":    map[string]any{"token": "abc"},
			},
			map[string]any{
				"choose": []any{map[string]any{
					"sequence": []any{map[string]any{"url": "https://example.com", "delay": "00:00:05"}},
				}},
			},
		},
	}

	got := SanitizeAutomationConfig(cfg)
	want := map[string]any{
		"id":           "1700000000000",
		"alias":        "Notify on door",
		"description":  nil,
		"mode":         "single",
		"max":          nil,
		"max_exceeded": nil,
		"trigger": []any{
			map[string]any{"platform": "webhook", "webhook_id": Redacted},
		},
		"condition": []any{},
		"action": []any{
			map[string]any{"service": "rest_command.call", "data": Redacted},
			map[string]any{
				"choose": []any{map[string]any{
					"sequence": []any{map[string]any{"url": Redacted, "delay": "00:00:05"}},
				}},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized config mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cfg["trigger"].([]any)[0].(map[string]any)["webhook_id"].(string); !ok {
		t.Fatal("input config was mutated")
	}
}

func TestSanitizeAutomationConfigPrefersAlias(t *testing.T) {
	got := SanitizeAutomationConfig(map[string]any{"alias": "Porch", "name": "ignored"})
	if got["alias"] != "Porch" {
		t.Fatalf("expected alias Porch, got %v", got["alias"])
	}
}

func TestSanitizeAutomationConfigNil(t *testing.T) {
	if got := SanitizeAutomationConfig(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
