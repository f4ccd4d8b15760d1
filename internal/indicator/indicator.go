// Package indicator provides streaming technical indicators and the plugin
// that publishes their values into the pipeline. Indicators are identified
// by an explicit Kind tag and must be registered before use; there is no
// reflective discovery.
package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Kind identifies an indicator variant. The set of kinds is closed per
// binary: every kind is registered explicitly in a Registry.
type Kind string

const (
	KindSMA Kind = "sma"
	KindEMA Kind = "ema"
)

// Smoother consumes one price per tick and yields the indicator value once
// enough data has been seen. Before warm-up completes, Update returns None.
type Smoother interface {
	Kind() Kind
	Update(price float64) optional.Option[float64]
	// Value returns the last computed value, or None during warm-up.
	Value() optional.Option[float64]
}

// Factory creates a smoother with the given period.
type Factory func(period int) (Smoother, error)

// Registry maps indicator kinds to factories. Lookup of an unregistered
// kind fails immediately.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates an empty indicator registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// DefaultRegistry returns a registry with the built-in indicators.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	// registration errors are impossible on a fresh registry
	_ = registry.Register(KindSMA, NewSMA)
	_ = registry.Register(KindEMA, NewEMA)

	return registry
}

// Register adds a factory for the given kind.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if _, exists := r.factories[kind]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator kind %s already registered", kind)
	}

	r.factories[kind] = factory

	return nil
}

// Create instantiates a smoother of the given kind.
func (r *Registry) Create(kind Kind, period int) (Smoother, error) {
	factory, exists := r.factories[kind]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownIndicator, "indicator kind not registered: %s", kind)
	}

	return factory(period)
}

// Kinds returns all registered kinds.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	return kinds
}

func validatePeriod(kind Kind, period int) error {
	if period <= 0 {
		return errors.NewIndicatorError(string(kind), "period must be a positive integer", nil)
	}

	return nil
}
