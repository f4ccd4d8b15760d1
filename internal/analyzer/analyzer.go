// Package analyzer provides the performance analyzer plugin. It listens
// to completed trades and portfolio value changes and aggregates them into
// a run report available after finalize.
package analyzer

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// PluginName is the analyzer's registry name.
const PluginName = "performance-analyzer"

// Report is the aggregated outcome of one run.
type Report struct {
	Trades     int     `yaml:"trades" json:"trades"`
	Buys       int     `yaml:"buys" json:"buys"`
	Sells      int     `yaml:"sells" json:"sells"`
	Wins       int     `yaml:"wins" json:"wins"`
	WinRate    float64 `yaml:"win_rate" json:"win_rate"`
	FeesPaid   float64 `yaml:"fees_paid" json:"fees_paid"`
	NetProfit  float64 `yaml:"net_profit" json:"net_profit"`
	FinalValue float64 `yaml:"final_value" json:"final_value"`
}

// Analyzer aggregates trade results with decimal arithmetic so that fee
// sums and profit do not drift over long runs. Win counting compares each
// sell's effective price against the average effective entry price.
type Analyzer struct {
	log *logger.Logger

	trades   int
	buys     int
	sells    int
	wins     int
	fees     decimal.Decimal
	heldAmt  decimal.Decimal
	heldCost decimal.Decimal

	firstValue float64
	lastValue  float64
	seenValue  bool
}

// NewAnalyzer creates an unconfigured analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Descriptor returns the analyzer's plugin descriptor. The analyzer runs
// after the plugin that produces the trade events.
func Descriptor(dependencies ...string) plugin.Descriptor {
	return plugin.Descriptor{
		Name: PluginName,
		EventsHandled: []string{
			types.EventTradeCompleted,
			types.EventPortfolioValueChange,
		},
		Dependencies: dependencies,
		Inject:       []plugin.ServiceName{plugin.ServiceLogger},
		Modes:        []types.Mode{types.ModeBacktest, types.ModePaper, types.ModeLive},
		APIVersion:   "^1.0",
		Factory:      func() plugin.Plugin { return NewAnalyzer() },
	}
}

// Configure implements plugin.Plugin.
func (a *Analyzer) Configure(_ string, services plugin.Services) error {
	a.log = services.Logger

	return nil
}

// OnTick implements plugin.Plugin.
func (a *Analyzer) OnTick(types.Tick, plugin.EmitFunc) error {
	return nil
}

// OnEvent implements plugin.Plugin.
func (a *Analyzer) OnEvent(name string, payload any, _ plugin.EmitFunc) error {
	switch name {
	case types.EventTradeCompleted:
		trade, ok := payload.(types.TradeCompleted)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidParameter, "unexpected trade payload type %T", payload)
		}

		a.recordTrade(trade)
	case types.EventPortfolioValueChange:
		change, ok := payload.(types.PortfolioValueChange)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidParameter, "unexpected value payload type %T", payload)
		}

		if !a.seenValue {
			a.firstValue = change.Value
			a.seenValue = true
		}

		a.lastValue = change.Value
	}

	return nil
}

func (a *Analyzer) recordTrade(trade types.TradeCompleted) {
	a.trades++
	a.fees = a.fees.Add(decimal.NewFromFloat(trade.Cost))

	amount := decimal.NewFromFloat(trade.Amount)
	effective := decimal.NewFromFloat(trade.EffectivePrice)

	switch trade.Action {
	case types.ActionBuy:
		a.buys++
		a.heldAmt = a.heldAmt.Add(amount)
		a.heldCost = a.heldCost.Add(amount.Mul(effective))
	case types.ActionSell:
		a.sells++

		if a.heldAmt.IsPositive() {
			avgEntry := a.heldCost.Div(a.heldAmt)
			if effective.GreaterThan(avgEntry) {
				a.wins++
			}

			sold := decimal.Min(amount, a.heldAmt)
			a.heldCost = a.heldCost.Sub(sold.Mul(avgEntry))
			a.heldAmt = a.heldAmt.Sub(sold)
		}
	}
}

// Finalize implements plugin.Plugin. The report is logged; it stays
// available through Report after the run ends.
func (a *Analyzer) Finalize(plugin.EmitFunc) error {
	report := a.Report()

	a.log.Info("Run performance",
		zap.Int("trades", report.Trades),
		zap.Int("wins", report.Wins),
		zap.Float64("win_rate", report.WinRate),
		zap.Float64("fees_paid", report.FeesPaid),
		zap.Float64("net_profit", report.NetProfit),
		zap.Float64("final_value", report.FinalValue),
	)

	return nil
}

// Report returns the aggregated run report.
func (a *Analyzer) Report() Report {
	fees, _ := a.fees.Float64()

	report := Report{
		Trades:     a.trades,
		Buys:       a.buys,
		Sells:      a.sells,
		Wins:       a.wins,
		FeesPaid:   fees,
		FinalValue: a.lastValue,
	}

	if a.sells > 0 {
		report.WinRate = float64(a.wins) / float64(a.sells)
	}

	if a.seenValue {
		net, _ := decimal.NewFromFloat(a.lastValue).
			Sub(decimal.NewFromFloat(a.firstValue)).Float64()
		report.NetProfit = net
	}

	return report
}

var _ plugin.Plugin = (*Analyzer)(nil)
