package domain

import (
	"context"
	"sync"

	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
)

type firedEvent struct {
	eventType string
	data      any
}

// fakeHA is an in-memory HomeAssistant.
type fakeHA struct {
	mu sync.Mutex

	states      map[string]homeassistant.EntityState
	stateList   []homeassistant.EntityState
	stateErr    error
	services    []homeassistant.ServiceDomain
	servicesErr error
	traces      any
	tracesErr   error
	history     any
	historyErr  error
	logbook     any
	logbookErr  error
	config      map[string]any
	configErr   error
	hostInfo    any
	hostInfoErr error
	repairs     homeassistant.RepairIssues
	repairsErr  error
	fireErr     error

	fired          []firedEvent
	logbookQueries []homeassistant.LogbookQuery
	historyQueries []homeassistant.HistoryQuery
}

func (f *fakeHA) State(_ context.Context, entityID string) (homeassistant.EntityState, error) {
	if f.stateErr != nil {
		return homeassistant.EntityState{}, f.stateErr
	}
	state, ok := f.states[entityID]
	if !ok {
		return homeassistant.EntityState{}, &homeassistant.HTTPError{Method: "GET", Path: "/states/" + entityID, StatusCode: 404, Status: "404 Not Found"}
	}
	return state, nil
}

func (f *fakeHA) States(context.Context) ([]homeassistant.EntityState, error) {
	return f.stateList, f.stateErr
}

func (f *fakeHA) Services(context.Context) ([]homeassistant.ServiceDomain, error) {
	return f.services, f.servicesErr
}

func (f *fakeHA) AutomationTraces(context.Context, string) (any, error) {
	return f.traces, f.tracesErr
}

func (f *fakeHA) HistoryPeriod(_ context.Context, q homeassistant.HistoryQuery) (any, error) {
	f.mu.Lock()
	f.historyQueries = append(f.historyQueries, q)
	f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeHA) Logbook(_ context.Context, q homeassistant.LogbookQuery) (any, error) {
	f.mu.Lock()
	f.logbookQueries = append(f.logbookQueries, q)
	f.mu.Unlock()
	return f.logbook, f.logbookErr
}

func (f *fakeHA) AutomationConfig(context.Context, string) (map[string]any, error) {
	return f.config, f.configErr
}

func (f *fakeHA) SupervisorHostInfo(context.Context) (any, error) {
	return f.hostInfo, f.hostInfoErr
}

func (f *fakeHA) RepairsListIssues(context.Context) (homeassistant.RepairIssues, error) {
	return f.repairs, f.repairsErr
}

func (f *fakeHA) FireEvent(_ context.Context, eventType string, data any) error {
	if f.fireErr != nil {
		return f.fireErr
	}
	f.mu.Lock()
	f.fired = append(f.fired, firedEvent{eventType: eventType, data: data})
	f.mu.Unlock()
	return nil
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }
