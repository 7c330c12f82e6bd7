package homeassistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const automationPrefix = "automation."

// EntityDomain returns the domain part of an entity_id.
func EntityDomain(entityID string) string {
	domain, _, _ := strings.Cut(entityID, ".")
	return domain
}

// AutomationItemID strips the automation. prefix from an entity_id.
func AutomationItemID(entityID string) string {
	return strings.TrimPrefix(entityID, automationPrefix)
}

// State returns the current state of one entity.
func (c *Client) State(ctx context.Context, entityID string) (EntityState, error) {
	var state EntityState
	if err := c.getJSON(ctx, "/states/"+url.PathEscape(entityID), &state); err != nil {
		return EntityState{}, err
	}
	return state, nil
}

// States returns every entity state.
func (c *Client) States(ctx context.Context) ([]EntityState, error) {
	var states []EntityState
	if err := c.getJSON(ctx, "/states", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Services returns the service registry grouped by domain, as the REST API
// reports it.
func (c *Client) Services(ctx context.Context) ([]ServiceDomain, error) {
	var domains []ServiceDomain
	if err := c.getJSON(ctx, "/services", &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

// AutomationTraces returns the stored traces for an automation.
func (c *Client) AutomationTraces(ctx context.Context, entityID string) (any, error) {
	var traces any
	path := "/trace/automation/" + url.PathEscape(AutomationItemID(entityID))
	if err := c.getJSON(ctx, path, &traces); err != nil {
		return nil, err
	}
	return traces, nil
}

// HistoryQuery selects a history window.
type HistoryQuery struct {
	Start     string
	End       string
	EntityIDs []string
}

// HistoryPeriod returns state history starting at q.Start.
func (c *Client) HistoryPeriod(ctx context.Context, q HistoryQuery) (any, error) {
	values := url.Values{}
	if q.End != "" {
		values.Set("end_time", q.End)
	}
	if len(q.EntityIDs) > 0 {
		values.Set("filter_entity_id", strings.Join(q.EntityIDs, ","))
	}
	var history any
	if err := c.getJSON(ctx, "/history/period/"+url.PathEscape(q.Start)+querySuffix(values), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// LogbookQuery selects a logbook window.
type LogbookQuery struct {
	Start    string
	End      string
	EntityID string
}

// Logbook returns logbook entries starting at q.Start.
func (c *Client) Logbook(ctx context.Context, q LogbookQuery) (any, error) {
	values := url.Values{}
	if q.End != "" {
		values.Set("end_time", q.End)
	}
	if q.EntityID != "" {
		values.Set("entity", q.EntityID)
	}
	var entries any
	if err := c.getJSON(ctx, "/logbook/"+url.PathEscape(q.Start)+querySuffix(values), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AutomationConfig returns the stored configuration of a UI-managed
// automation. The internal id attribute of the automation state is preferred;
// when the state cannot be read the entity_id suffix is used instead.
func (c *Client) AutomationConfig(ctx context.Context, entityID string) (map[string]any, error) {
	itemID := AutomationItemID(entityID)
	if state, err := c.State(ctx, entityID); err == nil {
		if internal := state.Attribute("id"); internal != nil {
			if value := strings.TrimSpace(fmt.Sprint(internal)); value != "" {
				itemID = value
			}
		}
	}

	var cfg map[string]any
	if err := c.getJSON(ctx, "/config/automation/config/"+url.PathEscape(itemID), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SupervisorHostInfo returns host information from the Supervisor API.
func (c *Client) SupervisorHostInfo(ctx context.Context) (any, error) {
	if !c.cfg.SupervisorMode() {
		return nil, ErrSupervisorOnly
	}
	var info any
	if err := c.do(ctx, "Supervisor", http.MethodGet, c.cfg.supervisorURL(), "/host/info", c.cfg.SupervisorToken, nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// FireEvent fires an event on the Home Assistant bus.
func (c *Client) FireEvent(ctx context.Context, eventType string, data any) error {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	if data == nil {
		data = map[string]any{}
	}
	return c.postJSON(ctx, "/events/"+url.PathEscape(eventType), data, nil)
}

func querySuffix(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
