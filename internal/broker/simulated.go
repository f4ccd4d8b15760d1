package broker

import (
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// SimulatedBrokerName is the registry name of the built-in paper broker.
const SimulatedBrokerName = "simulated"

// SimulatedBroker serves static limits for paper trading runs. Markets are
// only available after LoadMarkets has been called.
type SimulatedBroker struct {
	feePercent float64
	limits     map[types.Pair]Limits
	markets    map[types.Pair]Limits
	loaded     bool
}

// NewSimulatedBroker creates a simulated broker with the given fee and
// per-pair limits.
func NewSimulatedBroker(feePercent float64, limits map[types.Pair]Limits) *SimulatedBroker {
	return &SimulatedBroker{
		feePercent: feePercent,
		limits:     limits,
		markets:    nil,
		loaded:     false,
	}
}

// Name implements Broker.
func (b *SimulatedBroker) Name() string {
	return SimulatedBrokerName
}

// LoadMarkets implements Broker.
func (b *SimulatedBroker) LoadMarkets() error {
	markets := make(map[types.Pair]Limits, len(b.limits))

	for pair, limits := range b.limits {
		if err := pair.Validate(); err != nil {
			return err
		}

		markets[pair] = limits
	}

	b.markets = markets
	b.loaded = true

	return nil
}

// Limits implements Broker.
func (b *SimulatedBroker) Limits(pair types.Pair) (Limits, error) {
	if !b.loaded {
		return Limits{}, errors.New(errors.ErrCodeBrokerLimitsUndefined,
			"market limits not loaded; call LoadMarkets before simulating orders")
	}

	limits, exists := b.markets[pair]
	if !exists {
		return Limits{}, errors.Newf(errors.ErrCodeBrokerLimitsUndefined,
			"no market limits declared for pair %s", pair)
	}

	return limits, nil
}

// FeePercent implements Broker.
func (b *SimulatedBroker) FeePercent() float64 {
	return b.feePercent
}
