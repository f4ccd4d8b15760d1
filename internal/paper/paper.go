package paper

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// PluginName is the paper trader's registry name.
const PluginName = "paper-trader"

// Config is the paper trader's plugin configuration.
type Config struct {
	Pair           string  `yaml:"pair" json:"pair" validate:"required" jsonschema:"title=Pair,description=Trading pair to simulate"`
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" validate:"gt=0" jsonschema:"title=Initial Balance,minimum=0"`
}

// Trader is the paper-trading plugin: it consumes advice events, runs the
// trigger state machine against each price tick and applies fired
// triggers to the ledger.
type Trader struct {
	log          *logger.Logger
	broker       broker.Broker
	config       Config
	pair         types.Pair
	book         *TriggerBook
	ledger       *Ledger
	history      *HistoryStore
	lastSummary  types.OrderSummary
	currentPrice float64
	currentTime  time.Time
}

// NewTrader creates an unconfigured paper trader.
func NewTrader() *Trader {
	return &Trader{
		book:        NewTriggerBook(),
		lastSummary: types.EmptyOrderSummary(),
	}
}

// Descriptor returns the paper trader's plugin descriptor. Dependencies
// are wiring-specific and supplied by the caller (typically the strategy
// plugin's name).
func Descriptor(dependencies ...string) plugin.Descriptor {
	return plugin.Descriptor{
		Name: PluginName,
		EventsEmitted: []string{
			types.EventTriggerCreated,
			types.EventTriggerFired,
			types.EventTriggerAborted,
			types.EventTradeInitiated,
			types.EventTradeCompleted,
			types.EventPortfolioChange,
			types.EventPortfolioValueChange,
		},
		EventsHandled:   []string{types.EventAdvice},
		Dependencies:    dependencies,
		Inject:          []plugin.ServiceName{plugin.ServiceLogger, plugin.ServiceBroker},
		Modes:           []types.Mode{types.ModeBacktest, types.ModePaper},
		APIVersion:      "^1.0",
		Factory:         func() plugin.Plugin { return NewTrader() },
		ConfigPrototype: &Config{},
	}
}

// Configure implements plugin.Plugin.
func (t *Trader) Configure(config string, services plugin.Services) error {
	if err := yaml.Unmarshal([]byte(config), &t.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse paper trader config", err)
	}

	if err := validator.New().Struct(&t.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid paper trader config", err)
	}

	t.pair = types.Pair(t.config.Pair)
	if err := t.pair.Validate(); err != nil {
		return err
	}

	t.log = services.Logger
	t.broker = services.Broker

	// markets must be loaded before the first simulated order
	if err := t.broker.LoadMarkets(); err != nil {
		return err
	}

	history, err := NewHistoryStore(t.log)
	if err != nil {
		return err
	}

	t.history = history
	t.ledger = NewLedger(t.log, t.broker, t.pair, t.config.InitialBalance, history)

	return nil
}

// OnTick implements plugin.Plugin. Every open trigger is evaluated
// against the new price; fired triggers produce simulated trades.
func (t *Trader) OnTick(tick types.Tick, emit plugin.EmitFunc) error {
	if tick.Kind == types.TickKindClock {
		return nil
	}

	t.currentPrice = tick.Price()
	t.currentTime = tick.Timestamp

	for _, trigger := range t.book.Evaluate(t.currentPrice) {
		// a sell trigger satisfied with nothing held has lost the position
		// it guarded; it aborts before any fire event is announced
		if trigger.Action == types.ActionSell && t.ledger.Portfolio().Asset <= 0 {
			trigger.State = TriggerStateAborted

			if err := emit(types.EventTriggerAborted, types.TriggerAborted{
				ID:       trigger.ID,
				AdviceID: trigger.AdviceID,
				Reason:   "no position to sell",
				Date:     tick.Timestamp,
			}); err != nil {
				return err
			}

			continue
		}

		if err := emit(types.EventTriggerFired, types.TriggerFired{
			ID:       trigger.ID,
			AdviceID: trigger.AdviceID,
			Price:    t.currentPrice,
			Date:     tick.Timestamp,
		}); err != nil {
			return err
		}

		fill := types.TradeInitiated{
			ID:       uuid.New().String(),
			AdviceID: trigger.AdviceID,
			Pair:     t.pair,
			Action:   trigger.Action,
			Price:    t.currentPrice,
			Date:     tick.Timestamp,
		}

		if err := t.execute(fill, trigger.Amount, emit); err != nil {
			return err
		}
	}

	return nil
}

// OnEvent implements plugin.Plugin. Advice without a trigger condition
// fills immediately at the current price; conditional advice registers a
// trigger. New advice supersedes open triggers of the opposite action.
func (t *Trader) OnEvent(name string, payload any, emit plugin.EmitFunc) error {
	if name != types.EventAdvice {
		return nil
	}

	advice, ok := payload.(types.Advice)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unexpected advice payload type %T", payload)
	}

	superseded := t.book.AbortWhere(func(trigger *Trigger) bool {
		return trigger.Action != advice.Action
	})

	for _, trigger := range superseded {
		if err := emit(types.EventTriggerAborted, types.TriggerAborted{
			ID:       trigger.ID,
			AdviceID: trigger.AdviceID,
			Reason:   "superseded by advice " + advice.ID,
			Date:     advice.Date,
		}); err != nil {
			return err
		}
	}

	if advice.Trigger.IsSome() {
		trigger := t.book.Create(advice, advice.Trigger.Unwrap())

		return emit(types.EventTriggerCreated, types.TriggerCreated{
			ID:        trigger.ID,
			AdviceID:  trigger.AdviceID,
			Action:    trigger.Action,
			Condition: trigger.Condition,
			Date:      advice.Date,
		})
	}

	if t.currentPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidFill,
			"advice %s arrived before any price tick", advice.ID)
	}

	fill := types.TradeInitiated{
		ID:       uuid.New().String(),
		AdviceID: advice.ID,
		Pair:     t.pair,
		Action:   advice.Action,
		Price:    t.currentPrice,
		Date:     advice.Date,
	}

	return t.execute(fill, advice.Amount, emit)
}

// execute emits the fill, applies it to the ledger and publishes the
// resulting portfolio and trade events, each exactly once.
func (t *Trader) execute(fill types.TradeInitiated, amount optional.Option[float64], emit plugin.EmitFunc) error {
	if err := emit(types.EventTradeInitiated, fill); err != nil {
		return err
	}

	completed, err := t.ledger.Apply(fill, amount)
	if err != nil {
		return err
	}

	t.lastSummary = types.OrderSummary{
		Amount:             completed.Amount,
		Price:              completed.Price,
		FeePercent:         completed.FeePercent,
		OrderExecutionDate: float64(completed.Date.Unix()),
	}

	if err := emit(types.EventPortfolioChange, types.PortfolioChange{
		Portfolio: completed.Portfolio,
		Date:      completed.Date,
	}); err != nil {
		return err
	}

	if err := emit(types.EventPortfolioValueChange, types.PortfolioValueChange{
		Value:   completed.Portfolio.Value(completed.Price),
		Balance: completed.Balance,
		Date:    completed.Date,
	}); err != nil {
		return err
	}

	if err := emit(types.EventTradeCompleted, completed); err != nil {
		return err
	}

	// a sell that flattens the position invalidates every protective sell
	// trigger still open; they must not fire against an empty portfolio
	if completed.Action == types.ActionSell && completed.Portfolio.Asset <= 0 {
		stale := t.book.AbortWhere(func(trigger *Trigger) bool {
			return trigger.Action == types.ActionSell
		})

		for _, trigger := range stale {
			if err := emit(types.EventTriggerAborted, types.TriggerAborted{
				ID:       trigger.ID,
				AdviceID: trigger.AdviceID,
				Reason:   "position closed by trade " + completed.ID,
				Date:     completed.Date,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// Finalize implements plugin.Plugin. Triggers that never met their
// condition are reported as unresolved open orders, not silently dropped.
func (t *Trader) Finalize(emit plugin.EmitFunc) error {
	for _, trigger := range t.book.Open() {
		t.log.Warn("Unresolved trigger at end of run",
			zap.String("trigger_id", trigger.ID),
			zap.String("advice_id", trigger.AdviceID),
			zap.String("action", string(trigger.Action)),
			zap.Float64("threshold", trigger.Condition.Price),
		)
	}

	if t.history != nil {
		return t.history.Close()
	}

	return nil
}

// UnresolvedTriggers returns the triggers still open, oldest first.
func (t *Trader) UnresolvedTriggers() []*Trigger {
	return t.book.Open()
}

// LastOrderSummary returns the most recent order summary, or the NaN
// sentinel when no order has been executed yet.
func (t *Trader) LastOrderSummary() types.OrderSummary {
	return t.lastSummary
}

// Ledger exposes the run's ledger for reporting.
func (t *Trader) Ledger() *Ledger {
	return t.ledger
}

// History exposes the run's trade history store.
func (t *Trader) History() *HistoryStore {
	return t.history
}

var _ plugin.Plugin = (*Trader)(nil)
