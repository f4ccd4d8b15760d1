package indicator

import (
	"github.com/moznion/go-optional"
)

// EMA is a streaming exponential moving average. It seeds from the simple
// average of the first period prices, then applies the standard
// 2/(period+1) smoothing factor.
type EMA struct {
	period int
	alpha  float64
	seed   []float64
	value  optional.Option[float64]
}

// NewEMA creates an exponential moving average smoother.
func NewEMA(period int) (Smoother, error) {
	if err := validatePeriod(KindEMA, period); err != nil {
		return nil, err
	}

	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
		value:  optional.None[float64](),
	}, nil
}

// Kind implements Smoother.
func (e *EMA) Kind() Kind {
	return KindEMA
}

// Update implements Smoother. The value is None until period prices have
// been seen.
func (e *EMA) Update(price float64) optional.Option[float64] {
	if e.value.IsNone() {
		e.seed = append(e.seed, price)
		if len(e.seed) < e.period {
			return optional.None[float64]()
		}

		sum := 0.0
		for _, p := range e.seed {
			sum += p
		}

		e.seed = nil
		e.value = optional.Some(sum / float64(e.period))

		return e.value
	}

	previous := e.value.Unwrap()
	e.value = optional.Some(e.alpha*price + (1-e.alpha)*previous)

	return e.value
}

// Value implements Smoother.
func (e *EMA) Value() optional.Option[float64] {
	return e.value
}
