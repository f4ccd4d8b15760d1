package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/indicator"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// ThresholdStrategyName is the threshold strategy's registry name.
const ThresholdStrategyName = "threshold"

// ThresholdConfig configures the threshold strategy.
type ThresholdConfig struct {
	Pair string `yaml:"pair" json:"pair" validate:"required" jsonschema:"title=Pair"`
	// BuyBelowPercent buys when the price drops this far below the
	// indicator value, in percent.
	BuyBelowPercent float64 `yaml:"buy_below_percent" json:"buy_below_percent" validate:"gt=0" jsonschema:"title=Buy Below Percent,minimum=0"`
	// SellAbovePercent sells when the price rises this far above the
	// indicator value, in percent.
	SellAbovePercent float64 `yaml:"sell_above_percent" json:"sell_above_percent" validate:"gt=0" jsonschema:"title=Sell Above Percent,minimum=0"`
	// StopLossPercent, when set, attaches a conditional sell this far
	// below the entry price to every buy.
	StopLossPercent optional.Option[float64] `yaml:"stop_loss_percent" json:"stop_loss_percent" jsonschema:"title=Stop Loss Percent"`
}

// UnmarshalYAML implements custom unmarshaling so the optional stop loss
// can be omitted from the config.
func (c *ThresholdConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		Pair             string   `yaml:"pair"`
		BuyBelowPercent  float64  `yaml:"buy_below_percent"`
		SellAbovePercent float64  `yaml:"sell_above_percent"`
		StopLossPercent  *float64 `yaml:"stop_loss_percent"`
	}

	var parsed config
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.Pair = parsed.Pair
	c.BuyBelowPercent = parsed.BuyBelowPercent
	c.SellAbovePercent = parsed.SellAbovePercent
	c.StopLossPercent = optional.FromNillable(parsed.StopLossPercent)

	return nil
}

// ThresholdStrategy emits buy advice when the price dips below the
// smoothed value by a configured margin and sell advice when it rises
// above it. At most one position is open at a time.
type ThresholdStrategy struct {
	log            *logger.Logger
	config         ThresholdConfig
	pair           types.Pair
	indicatorEvent string
	holding        bool
}

// NewThresholdStrategy creates an unconfigured threshold strategy
// subscribed to the given indicator event.
func NewThresholdStrategy(indicatorEvent string) *ThresholdStrategy {
	return &ThresholdStrategy{indicatorEvent: indicatorEvent}
}

// ThresholdDescriptor returns the threshold strategy's plugin descriptor.
// The strategy depends on the indicator plugin that publishes the event
// it subscribes to.
func ThresholdDescriptor(indicatorEvent string) plugin.Descriptor {
	return plugin.Descriptor{
		Name:          ThresholdStrategyName,
		EventsEmitted: []string{types.EventAdvice},
		EventsHandled: []string{indicatorEvent, types.EventTradeCompleted},
		Dependencies:  []string{indicatorEvent},
		Inject:        []plugin.ServiceName{plugin.ServiceLogger},
		Modes:         []types.Mode{types.ModeBacktest, types.ModePaper, types.ModeLive},
		APIVersion:    "^1.0",
		Factory: func() plugin.Plugin {
			return NewThresholdStrategy(indicatorEvent)
		},
		ConfigPrototype: &ThresholdConfig{},
	}
}

// Configure implements plugin.Plugin.
func (t *ThresholdStrategy) Configure(config string, services plugin.Services) error {
	if err := yaml.Unmarshal([]byte(config), &t.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse threshold strategy config", err)
	}

	if err := validator.New().Struct(&t.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid threshold strategy config", err)
	}

	t.pair = types.Pair(t.config.Pair)
	if err := t.pair.Validate(); err != nil {
		return err
	}

	t.log = services.Logger

	return nil
}

// OnTick implements plugin.Plugin. The strategy acts on indicator events
// only.
func (t *ThresholdStrategy) OnTick(types.Tick, plugin.EmitFunc) error {
	return nil
}

// OnEvent implements plugin.Plugin. The position flag follows completed
// trades, not the strategy's own advice: a stop-loss fill closes the
// position without the strategy asking for it.
func (t *ThresholdStrategy) OnEvent(name string, payload any, emit plugin.EmitFunc) error {
	switch name {
	case t.indicatorEvent:
		value, ok := payload.(indicator.Value)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidParameter, "unexpected indicator payload type %T", payload)
		}

		return t.onIndicator(value, emit)
	case types.EventTradeCompleted:
		trade, ok := payload.(types.TradeCompleted)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidParameter, "unexpected trade payload type %T", payload)
		}

		t.holding = trade.Portfolio.Asset > 0
	}

	return nil
}

func (t *ThresholdStrategy) onIndicator(value indicator.Value, emit plugin.EmitFunc) error {
	buyLine := value.Value * (1 - t.config.BuyBelowPercent/100)
	sellLine := value.Value * (1 + t.config.SellAbovePercent/100)

	switch {
	case !t.holding && value.Price <= buyLine:
		return t.openPosition(value, emit)
	case t.holding && value.Price >= sellLine:
		return t.closePosition(value, emit)
	}

	return nil
}

func (t *ThresholdStrategy) openPosition(value indicator.Value, emit plugin.EmitFunc) error {
	advice := types.Advice{
		ID:     uuid.New().String(),
		Pair:   t.pair,
		Action: types.ActionBuy,
		Amount: optional.None[float64](),
		Date:   value.Date,
	}

	if err := emit(types.EventAdvice, advice); err != nil {
		return err
	}

	t.holding = true

	t.log.Debug("Opened position",
		zap.String("advice_id", advice.ID),
		zap.Float64("price", value.Price),
		zap.Float64("indicator", value.Value),
	)

	if t.config.StopLossPercent.IsNone() {
		return nil
	}

	stop := types.Advice{
		ID:     uuid.New().String(),
		Pair:   t.pair,
		Action: types.ActionSell,
		Amount: optional.None[float64](),
		Trigger: optional.Some(types.TriggerCondition{
			Direction: types.TriggerDirectionDown,
			Price:     value.Price * (1 - t.config.StopLossPercent.Unwrap()/100),
		}),
		Date: value.Date,
	}

	return emit(types.EventAdvice, stop)
}

func (t *ThresholdStrategy) closePosition(value indicator.Value, emit plugin.EmitFunc) error {
	advice := types.Advice{
		ID:     uuid.New().String(),
		Pair:   t.pair,
		Action: types.ActionSell,
		Amount: optional.None[float64](),
		Date:   value.Date,
	}

	if err := emit(types.EventAdvice, advice); err != nil {
		return err
	}

	t.holding = false

	t.log.Debug("Closed position",
		zap.String("advice_id", advice.ID),
		zap.Float64("price", value.Price),
		zap.Float64("indicator", value.Value),
	)

	return nil
}

// Finalize implements plugin.Plugin.
func (t *ThresholdStrategy) Finalize(plugin.EmitFunc) error {
	return nil
}

var _ plugin.Plugin = (*ThresholdStrategy)(nil)
