package homeassistant

// Redacted replaces sensitive values in sanitized automation configs.
const Redacted = "[REDACTED]"

var redactKeys = map[string]struct{}{
	"access_token": {},
	"token":        {},
	"password":     {},
	"api_key":      {},
	"webhook_id":   {},
	"url":          {},
	"uri":          {},
	"headers":      {},
	"payload":      {},
	"data":         {},
}

// SanitizeAutomationConfig keeps the editor-relevant parts of an automation
// config and redacts secrets anywhere inside trigger, condition and action.
func SanitizeAutomationConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	alias := cfg["alias"]
	if alias == nil {
		alias = cfg["name"]
	}
	return map[string]any{
		"id":           cfg["id"],
		"alias":        alias,
		"description":  cfg["description"],
		"mode":         cfg["mode"],
		"max":          cfg["max"],
		"max_exceeded": cfg["max_exceeded"],
		"trigger":      redact(orEmptyList(cfg["trigger"])),
		"condition":    redact(orEmptyList(cfg["condition"])),
		"action":       redact(orEmptyList(cfg["action"])),
	}
}

func orEmptyList(value any) any {
	if value == nil {
		return []any{}
	}
	return value
}

func redact(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redact(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if _, secret := redactKeys[key]; secret {
				out[key] = Redacted
				continue
			}
			out[key] = redact(item)
		}
		return out
	default:
		return value
	}
}
