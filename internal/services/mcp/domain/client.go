package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/louisbranch/ha-diag/internal/services/lister"
)

// HomeAssistant is the subset of the Home Assistant client the tools use.
type HomeAssistant interface {
	State(ctx context.Context, entityID string) (homeassistant.EntityState, error)
	States(ctx context.Context) ([]homeassistant.EntityState, error)
	Services(ctx context.Context) ([]homeassistant.ServiceDomain, error)
	AutomationTraces(ctx context.Context, entityID string) (any, error)
	HistoryPeriod(ctx context.Context, q homeassistant.HistoryQuery) (any, error)
	Logbook(ctx context.Context, q homeassistant.LogbookQuery) (any, error)
	AutomationConfig(ctx context.Context, entityID string) (map[string]any, error)
	SupervisorHostInfo(ctx context.Context) (any, error)
	RepairsListIssues(ctx context.Context) (homeassistant.RepairIssues, error)
	FireEvent(ctx context.Context, eventType string, data any) error
}

var _ HomeAssistant = (*homeassistant.Client)(nil)

// registryReader adapts HomeAssistant to the lister registry interface.
type registryReader struct {
	client HomeAssistant
}

func (r registryReader) Services(ctx context.Context) (lister.Registry, error) {
	domains, err := r.client.Services(ctx)
	if err != nil {
		return nil, err
	}
	return homeassistant.RegistryFromDomains(domains), nil
}

// isoTime formats t the way Home Assistant timestamps are passed in URLs.
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// errorEvidence is embedded in place of evidence that could not be fetched.
func errorEvidence(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func checkRange(name string, value, minimum, maximum int) error {
	if value < minimum || value > maximum {
		return fmt.Errorf("%s must be between %d and %d", name, minimum, maximum)
	}
	return nil
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
