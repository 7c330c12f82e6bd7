package homeassistant

// EntityState is one entity as returned by /api/states.
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// Domain returns the entity_id prefix before the first dot.
func (s EntityState) Domain() string {
	return EntityDomain(s.EntityID)
}

// Attribute returns a named attribute, or nil when absent.
func (s EntityState) Attribute(name string) any {
	if s.Attributes == nil {
		return nil
	}
	return s.Attributes[name]
}

// ServiceDomain is one element of the /api/services response.
type ServiceDomain struct {
	Domain   string         `json:"domain"`
	Services map[string]any `json:"services"`
}

// RepairIssues is the result of the repairs/list_issues command.
type RepairIssues struct {
	Issues []map[string]any `json:"issues"`
}
