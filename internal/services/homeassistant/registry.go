package homeassistant

import (
	"context"

	"github.com/louisbranch/ha-diag/internal/services/lister"
)

// RegistryReader exposes the live service registry to the lister.
type RegistryReader struct {
	client *Client
}

// Registry returns the client as a lister registry reader.
func (c *Client) Registry() RegistryReader {
	return RegistryReader{client: c}
}

// Services reads /api/services and folds it into domain -> service -> description.
func (r RegistryReader) Services(ctx context.Context) (lister.Registry, error) {
	domains, err := r.client.Services(ctx)
	if err != nil {
		return nil, err
	}
	return RegistryFromDomains(domains), nil
}

// RegistryFromDomains converts the REST service listing into a registry.
// Repeated domains are merged.
func RegistryFromDomains(domains []ServiceDomain) lister.Registry {
	registry := make(lister.Registry, len(domains))
	for _, entry := range domains {
		services, ok := registry[entry.Domain]
		if !ok {
			services = make(map[string]any, len(entry.Services))
			registry[entry.Domain] = services
		}
		for name, description := range entry.Services {
			services[name] = description
		}
	}
	return registry
}

var (
	_ lister.RegistryReader = RegistryReader{}
	_ lister.EventSink      = (*Client)(nil)
)
