package lister

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"
)

const (
	// EventType is the event fired on the host bus for every diagnostic run.
	EventType = "ha_diag_result"
	// Title is the fixed human-readable title carried by the event payload.
	Title = "HA Diag: List services"
)

// Registry is a read-only snapshot of the host service registry, keyed by
// domain and then by service name. Service metadata is opaque here.
type Registry map[string]map[string]any

// Listing maps each domain to its lexicographically sorted service names.
type Listing map[string][]string

// Domains returns the listing's domains in sorted order.
func (l Listing) Domains() []string {
	domains := make([]string, 0, len(l))
	for domain := range l {
		domains = append(domains, domain)
	}
	slices.Sort(domains)
	return domains
}

// ServiceCount returns the number of services across all domains.
func (l Listing) ServiceCount() int {
	total := 0
	for _, services := range l {
		total += len(services)
	}
	return total
}

// Payload is the event body delivered to the sink.
type Payload struct {
	Title string  `json:"title"`
	Text  Listing `json:"text"`
}

// RegistryReader reads the host's live service registry.
type RegistryReader interface {
	Services(ctx context.Context) (Registry, error)
}

// EventSink delivers one event to the host bus.
type EventSink interface {
	FireEvent(ctx context.Context, eventType string, payload any) error
}

// BuildListing projects every registry domain to its sorted service names.
// The output has exactly the registry's domains; a domain without services
// maps to an empty, non-nil list.
func BuildListing(registry Registry) Listing {
	listing := make(Listing, len(registry))
	for domain, services := range registry {
		names := make([]string, 0, len(services))
		names = slices.AppendSeq(names, maps.Keys(services))
		slices.Sort(names)
		listing[domain] = names
	}
	return listing
}

// NewPayload wraps a listing with the fixed diagnostic title.
func NewPayload(listing Listing) Payload {
	if listing == nil {
		listing = Listing{}
	}
	return Payload{Title: Title, Text: listing}
}

// Lister runs the diagnostic against injected host accessors.
type Lister struct {
	registry RegistryReader
	sink     EventSink
	logger   *zap.Logger
}

// New creates a Lister. A nil logger discards log output.
func New(registry RegistryReader, sink EventSink, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{registry: registry, sink: sink, logger: logger}
}

// List reads the registry and builds the listing without emitting anything.
func (l *Lister) List(ctx context.Context) (Listing, error) {
	if l == nil || l.registry == nil {
		return nil, errors.New("service registry reader is not configured")
	}
	registry, err := l.registry.Services(ctx)
	if err != nil {
		return nil, fmt.Errorf("read service registry: %w", err)
	}
	listing := BuildListing(registry)
	l.logger.Debug("services listed",
		zap.Int("domains", len(listing)),
		zap.Int("services", listing.ServiceCount()),
	)
	return listing, nil
}

// Run lists the registry and fires exactly one ha_diag_result event carrying
// the listing. Nothing is emitted when the registry read fails.
func (l *Lister) Run(ctx context.Context) (Listing, error) {
	if l == nil || l.sink == nil {
		return nil, errors.New("event sink is not configured")
	}
	listing, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.sink.FireEvent(ctx, EventType, NewPayload(listing)); err != nil {
		return nil, fmt.Errorf("fire %s event: %w", EventType, err)
	}
	l.logger.Info("diagnostic event fired",
		zap.String("event_type", EventType),
		zap.Int("domains", len(listing)),
	)
	return listing, nil
}
