package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
	registry *Registry
}

func (s *IndicatorTestSuite) SetupTest() {
	s.registry = DefaultRegistry()
}

func (s *IndicatorTestSuite) TestRegistryCreate() {
	smoother, err := s.registry.Create(KindSMA, 3)
	s.Require().NoError(err)
	s.Equal(KindSMA, smoother.Kind())

	smoother, err = s.registry.Create(KindEMA, 3)
	s.Require().NoError(err)
	s.Equal(KindEMA, smoother.Kind())
}

func (s *IndicatorTestSuite) TestRegistryUnknownKind() {
	_, err := s.registry.Create(Kind("macd"), 3)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeUnknownIndicator))
}

func (s *IndicatorTestSuite) TestRegistryDuplicateKind() {
	err := s.registry.Register(KindSMA, NewSMA)
	s.Require().Error(err)
}

func (s *IndicatorTestSuite) TestInvalidPeriod() {
	_, err := s.registry.Create(KindSMA, 0)
	s.Require().Error(err)
	s.True(errors.IsIndicatorError(err))

	_, err = s.registry.Create(KindEMA, -1)
	s.Require().Error(err)
	s.True(errors.IsIndicatorError(err))
}

func (s *IndicatorTestSuite) TestSMAWarmupAndValues() {
	sma, err := NewSMA(3)
	s.Require().NoError(err)

	s.True(sma.Update(1).IsNone())
	s.True(sma.Update(2).IsNone())

	value := sma.Update(3)
	s.Require().True(value.IsSome())
	s.InDelta(2.0, value.Unwrap(), 1e-9)

	// window slides: (2+3+7)/3
	value = sma.Update(7)
	s.Require().True(value.IsSome())
	s.InDelta(4.0, value.Unwrap(), 1e-9)

	s.InDelta(4.0, sma.Value().Unwrap(), 1e-9)
}

func (s *IndicatorTestSuite) TestEMAWarmupAndValues() {
	ema, err := NewEMA(3)
	s.Require().NoError(err)

	s.True(ema.Update(1).IsNone())
	s.True(ema.Update(2).IsNone())

	// seeds from the simple average of the first 3 prices
	value := ema.Update(3)
	s.Require().True(value.IsSome())
	s.InDelta(2.0, value.Unwrap(), 1e-9)

	// alpha = 2/(3+1) = 0.5: 0.5*6 + 0.5*2
	value = ema.Update(6)
	s.Require().True(value.IsSome())
	s.InDelta(4.0, value.Unwrap(), 1e-9)
}

func (s *IndicatorTestSuite) TestPluginEmitsAfterWarmup() {
	descriptor := Descriptor(s.registry, KindSMA)
	s.Require().NoError(descriptor.Validate())
	s.Equal("indicator-sma", descriptor.Name)

	instance := descriptor.Factory()
	s.Require().NoError(instance.Configure("period: 2", plugin.Services{}))

	var emitted []Value

	emit := func(name string, payload any) error {
		s.Equal("indicator-sma", name)
		emitted = append(emitted, payload.(Value))

		return nil
	}

	tick := func(price float64) types.Tick {
		return types.Tick{
			Kind:      types.TickKindCandle,
			Pair:      "BTC/USD",
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Close:     price,
		}
	}

	s.Require().NoError(instance.OnTick(tick(10), emit))
	s.Empty(emitted)

	s.Require().NoError(instance.OnTick(tick(20), emit))
	s.Require().Len(emitted, 1)
	s.InDelta(15.0, emitted[0].Value, 1e-9)
	s.InDelta(20.0, emitted[0].Price, 1e-9)

	// clock ticks carry no price and are skipped
	s.Require().NoError(instance.OnTick(types.Tick{Kind: types.TickKindClock}, emit))
	s.Len(emitted, 1)
}

func (s *IndicatorTestSuite) TestPluginRejectsBadPeriod() {
	instance := NewPlugin(s.registry, KindEMA)

	err := instance.Configure("period: 0", plugin.Services{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func TestIndicatorTestSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}
