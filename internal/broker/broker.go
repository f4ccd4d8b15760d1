// Package broker defines the broker collaborator boundary: market limits
// per trading pair and a name-to-factory registry resolved at startup.
package broker

import (
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Limits are the declared order limits for one trading pair. A zero Max
// means the broker declares no upper bound for that dimension.
type Limits struct {
	MinAmount float64 `yaml:"min_amount" json:"min_amount"`
	MaxAmount float64 `yaml:"max_amount" json:"max_amount"`
	MinPrice  float64 `yaml:"min_price" json:"min_price"`
	MaxPrice  float64 `yaml:"max_price" json:"max_price"`
	MinCost   float64 `yaml:"min_cost" json:"min_cost"`
	MaxCost   float64 `yaml:"max_cost" json:"max_cost"`
}

// Check validates an order's amount and price against the limits.
func (l Limits) Check(amount, price float64) error {
	cost := amount * price

	switch {
	case amount < l.MinAmount:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "amount %f below minimum %f", amount, l.MinAmount)
	case l.MaxAmount > 0 && amount > l.MaxAmount:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "amount %f above maximum %f", amount, l.MaxAmount)
	case price < l.MinPrice:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "price %f below minimum %f", price, l.MinPrice)
	case l.MaxPrice > 0 && price > l.MaxPrice:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "price %f above maximum %f", price, l.MaxPrice)
	case cost < l.MinCost:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "cost %f below minimum %f", cost, l.MinCost)
	case l.MaxCost > 0 && cost > l.MaxCost:
		return errors.Newf(errors.ErrCodeOrderOutOfLimits, "cost %f above maximum %f", cost, l.MaxCost)
	}

	return nil
}

// Broker exposes market limits for order validation. LoadMarkets must be
// called before any limit lookup; looking up limits on an unloaded broker
// is a setup bug, not a transient condition.
type Broker interface {
	Name() string
	LoadMarkets() error
	Limits(pair types.Pair) (Limits, error)
	// FeePercent is the taker fee in percent, e.g. 0.25 for 0.25%.
	FeePercent() float64
}

// Factory creates a broker instance.
type Factory func() Broker

// Registry maps broker names to factories. Unknown names fail immediately
// at lookup time.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty broker registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a broker factory under its name.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "broker %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create instantiates the named broker.
func (r *Registry) Create(name string) (Broker, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownBroker, "broker not registered: %s", name)
	}

	return factory(), nil
}

// Names returns all registered broker names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}
