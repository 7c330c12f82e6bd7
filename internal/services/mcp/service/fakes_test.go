package service

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
)

var errUnavailable = errors.New("unavailable")

type firedEvent struct {
	eventType string
	data      any
}

// fakeHA serves a fixed service registry and records fired events.
type fakeHA struct {
	mu       sync.Mutex
	services []homeassistant.ServiceDomain
	fired    []firedEvent
}

func (f *fakeHA) State(context.Context, string) (homeassistant.EntityState, error) {
	return homeassistant.EntityState{}, errUnavailable
}

func (f *fakeHA) States(context.Context) ([]homeassistant.EntityState, error) {
	return []homeassistant.EntityState{}, nil
}

func (f *fakeHA) Services(context.Context) ([]homeassistant.ServiceDomain, error) {
	return f.services, nil
}

func (f *fakeHA) AutomationTraces(context.Context, string) (any, error) {
	return nil, errUnavailable
}

func (f *fakeHA) HistoryPeriod(context.Context, homeassistant.HistoryQuery) (any, error) {
	return nil, errUnavailable
}

func (f *fakeHA) Logbook(context.Context, homeassistant.LogbookQuery) (any, error) {
	return nil, errUnavailable
}

func (f *fakeHA) AutomationConfig(context.Context, string) (map[string]any, error) {
	return nil, errUnavailable
}

func (f *fakeHA) SupervisorHostInfo(context.Context) (any, error) {
	return map[string]any{"hostname": "homeassistant"}, nil
}

func (f *fakeHA) RepairsListIssues(context.Context) (homeassistant.RepairIssues, error) {
	return homeassistant.RepairIssues{Issues: []map[string]any{}}, nil
}

func (f *fakeHA) FireEvent(_ context.Context, eventType string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, firedEvent{eventType: eventType, data: data})
	return nil
}

func (f *fakeHA) firedEvents() []firedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]firedEvent(nil), f.fired...)
}

func newFakeHA() *fakeHA {
	return &fakeHA{services: []homeassistant.ServiceDomain{
		{Domain: "light", Services: map[string]any{"turn_on": map[string]any{}, "toggle": map[string]any{}}},
		{Domain: "automation", Services: map[string]any{"trigger": map[string]any{}}},
	}}
}
