package indicator

import (
	"github.com/moznion/go-optional"
)

// SMA is a streaming simple moving average over a fixed window of prices.
type SMA struct {
	period int
	window []float64
	sum    float64
	next   int
	filled bool
}

// NewSMA creates a simple moving average smoother.
func NewSMA(period int) (Smoother, error) {
	if err := validatePeriod(KindSMA, period); err != nil {
		return nil, err
	}

	return &SMA{
		period: period,
		window: make([]float64, period),
	}, nil
}

// Kind implements Smoother.
func (s *SMA) Kind() Kind {
	return KindSMA
}

// Update implements Smoother. The value is None until the window is full.
func (s *SMA) Update(price float64) optional.Option[float64] {
	s.sum += price - s.window[s.next]
	s.window[s.next] = price
	s.next = (s.next + 1) % s.period

	if s.next == 0 {
		s.filled = true
	}

	return s.Value()
}

// Value implements Smoother.
func (s *SMA) Value() optional.Option[float64] {
	if !s.filled {
		return optional.None[float64]()
	}

	return optional.Some(s.sum / float64(s.period))
}
