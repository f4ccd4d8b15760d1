// Package strategy holds the strategy registry and the built-in
// strategies. A strategy is a pipeline plugin that consumes indicator
// events and emits advice; the paper trader turns advice into simulated
// orders.
package strategy

import (
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// DescriptorFactory builds a strategy's plugin descriptor. The indicator
// event the strategy subscribes to is wiring-specific and supplied when
// the pipeline is assembled.
type DescriptorFactory func(indicatorEvent string) plugin.Descriptor

// Registry maps strategy names to descriptor factories. Strategy names
// come from configuration, so unknown names must fail at startup, before
// any data is processed.
type Registry struct {
	factories map[string]DescriptorFactory
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]DescriptorFactory)}
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	_ = registry.Register(ThresholdStrategyName, ThresholdDescriptor)

	return registry
}

// Register adds a strategy under its name.
func (r *Registry) Register(name string, factory DescriptorFactory) error {
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "strategy %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Resolve returns the descriptor factory for the named strategy.
func (r *Registry) Resolve(name string) (DescriptorFactory, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "strategy not registered: %s", name)
	}

	return factory, nil
}

// Names returns all registered strategy names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}
