package paper

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// DefaultFeeBuffer is the safety margin added on top of the fee when
// sizing an order from the available balance, so fee deduction cannot
// push a simulated balance negative.
const DefaultFeeBuffer = 0.05

// Ledger applies simulated fills to the portfolio of one run. It
// exclusively owns the portfolio; all mutation goes through Apply.
type Ledger struct {
	log       *logger.Logger
	broker    broker.Broker
	pair      types.Pair
	portfolio types.Portfolio
	history   *HistoryStore
	applied   map[string]struct{}
}

// NewLedger creates a ledger with the given starting currency balance.
func NewLedger(log *logger.Logger, b broker.Broker, pair types.Pair, initialBalance float64, history *HistoryStore) *Ledger {
	return &Ledger{
		log:    log,
		broker: b,
		pair:   pair,
		portfolio: types.Portfolio{
			Asset:    0,
			Currency: initialBalance,
		},
		history: history,
		applied: make(map[string]struct{}),
	}
}

// Portfolio returns the current portfolio snapshot.
func (l *Ledger) Portfolio() types.Portfolio {
	return l.portfolio
}

// Balance returns the current currency balance.
func (l *Ledger) Balance() float64 {
	return l.portfolio.Currency
}

// EffectivePrice adjusts the raw fill price for fees: cost basis on buys
// increases by the fee, proceeds on sells decrease by it.
func (l *Ledger) EffectivePrice(action types.Action, price float64) float64 {
	rate := decimal.NewFromFloat(l.broker.FeePercent()).Div(decimal.NewFromInt(100))
	p := decimal.NewFromFloat(price)

	if action == types.ActionBuy {
		result, _ := p.Mul(decimal.NewFromInt(1).Add(rate)).Float64()

		return result
	}

	result, _ := p.Mul(decimal.NewFromInt(1).Sub(rate)).Float64()

	return result
}

// MaxBuyAmount sizes a buy order from the available balance with the fee
// buffer applied, so the order never exceeds
// balance / (1 + feePercent + DefaultFeeBuffer) in quote currency.
func (l *Ledger) MaxBuyAmount(price float64) float64 {
	if price <= 0 {
		return 0
	}

	rate := decimal.NewFromFloat(l.broker.FeePercent()).Div(decimal.NewFromInt(100))
	divisor := decimal.NewFromInt(1).Add(rate).Add(decimal.NewFromFloat(DefaultFeeBuffer))
	spendable := decimal.NewFromFloat(l.portfolio.Currency).Div(divisor)

	amount, _ := spendable.Div(decimal.NewFromFloat(price)).Float64()

	return amount
}

// Apply turns a trade-initiated fill into a completed trade: validates it
// against the broker's market limits, mutates the portfolio and records
// the trade. Re-applying the same fill id is rejected and leaves all
// state unchanged.
func (l *Ledger) Apply(fill types.TradeInitiated, amount optional.Option[float64]) (types.TradeCompleted, error) {
	if _, dup := l.applied[fill.ID]; dup {
		return types.TradeCompleted{}, errors.Newf(errors.ErrCodeDuplicateTrade,
			"trade already applied: %s", fill.ID)
	}

	if fill.Price <= 0 {
		return types.TradeCompleted{}, errors.Newf(errors.ErrCodeInvalidFill,
			"fill %s has no usable price", fill.ID)
	}

	// Market limits must have been loaded before any simulated order;
	// a missing limit set is a setup bug and is not retried.
	limits, err := l.broker.Limits(l.pair)
	if err != nil {
		return types.TradeCompleted{}, err
	}

	feePercent := l.broker.FeePercent()
	effectivePrice := l.EffectivePrice(fill.Action, fill.Price)

	qty := l.resolveAmount(fill, amount, effectivePrice)
	if qty <= 0 {
		return types.TradeCompleted{}, errors.Newf(errors.ErrCodeInvalidFill,
			"fill %s resolves to a zero or negative amount", fill.ID)
	}

	if err := limits.Check(qty, fill.Price); err != nil {
		return types.TradeCompleted{}, err
	}

	qtyDec := decimal.NewFromFloat(qty)
	effectiveDec := decimal.NewFromFloat(effectivePrice)
	feeCost, _ := qtyDec.Mul(decimal.NewFromFloat(fill.Price)).
		Mul(decimal.NewFromFloat(feePercent)).Div(decimal.NewFromInt(100)).Float64()

	switch fill.Action {
	case types.ActionBuy:
		cost, _ := qtyDec.Mul(effectiveDec).Float64()
		if cost > l.portfolio.Currency {
			return types.TradeCompleted{}, errors.Newf(errors.ErrCodeInsufficientBalance,
				"fill %s costs %f but only %f is available", fill.ID, cost, l.portfolio.Currency)
		}

		l.portfolio.Currency -= cost
		l.portfolio.Asset += qty
	case types.ActionSell:
		if l.portfolio.Asset <= 0 {
			return types.TradeCompleted{}, errors.Newf(errors.ErrCodeInvalidFill,
				"fill %s sells but no asset is held", fill.ID)
		}

		proceeds, _ := qtyDec.Mul(effectiveDec).Float64()

		l.portfolio.Asset -= qty
		l.portfolio.Currency += proceeds
	default:
		return types.TradeCompleted{}, errors.Newf(errors.ErrCodeInvalidFill,
			"fill %s has unknown action %q", fill.ID, fill.Action)
	}

	completed := types.TradeCompleted{
		ID:             fill.ID,
		AdviceID:       fill.AdviceID,
		Action:         fill.Action,
		Cost:           feeCost,
		Amount:         qty,
		Price:          fill.Price,
		Portfolio:      l.portfolio,
		Balance:        l.portfolio.Currency,
		Date:           fill.Date,
		FeePercent:     feePercent,
		EffectivePrice: effectivePrice,
	}

	if l.history != nil {
		if err := l.history.Record(completed); err != nil {
			// roll back the portfolio mutation; the ledger and history
			// must never disagree
			l.rollback(fill.Action, qty, effectivePrice)

			return types.TradeCompleted{}, err
		}
	}

	l.applied[fill.ID] = struct{}{}

	l.log.Debug("Trade applied",
		zap.String("id", completed.ID),
		zap.String("action", string(completed.Action)),
		zap.Float64("amount", completed.Amount),
		zap.Float64("effective_price", completed.EffectivePrice),
		zap.Float64("balance", completed.Balance),
	)

	return completed, nil
}

// resolveAmount determines the executed amount: the advice's requested
// amount when given, otherwise a buffer-sized buy or a full sell.
func (l *Ledger) resolveAmount(fill types.TradeInitiated, amount optional.Option[float64], effectivePrice float64) float64 {
	if amount.IsSome() {
		qty := amount.Unwrap()

		if fill.Action == types.ActionSell && qty > l.portfolio.Asset {
			// never sell more than is held
			return l.portfolio.Asset
		}

		if fill.Action == types.ActionBuy {
			max := l.MaxBuyAmount(fill.Price)
			if qty > max {
				return max
			}
		}

		return qty
	}

	if fill.Action == types.ActionBuy {
		return l.MaxBuyAmount(fill.Price)
	}

	return l.portfolio.Asset
}

func (l *Ledger) rollback(action types.Action, qty, effectivePrice float64) {
	qtyDec := decimal.NewFromFloat(qty)
	amountDec := qtyDec.Mul(decimal.NewFromFloat(effectivePrice))
	value, _ := amountDec.Float64()

	if action == types.ActionBuy {
		l.portfolio.Currency += value
		l.portfolio.Asset -= qty

		return
	}

	l.portfolio.Asset += qty
	l.portfolio.Currency -= value
}
