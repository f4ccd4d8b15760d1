package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Mode selects which plugins participate in a pipeline run.
type Mode string

const (
	ModeBacktest Mode = "backtest"
	ModePaper    Mode = "paper"
	ModeLive     Mode = "live"
)

// TickKind describes what a single pipeline input represents.
type TickKind string

const (
	TickKindCandle TickKind = "candle"
	TickKindTrade  TickKind = "trade"
	TickKindClock  TickKind = "clock"
)

// Tick is one unit of input to the pipeline: a candle, a trade or a
// synthetic clock pulse. Candle fields are zero for clock ticks.
type Tick struct {
	Kind      TickKind  `yaml:"kind" json:"kind"`
	Pair      string    `yaml:"pair" json:"pair"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Open      float64   `yaml:"open" json:"open"`
	High      float64   `yaml:"high" json:"high"`
	Low       float64   `yaml:"low" json:"low"`
	Close     float64   `yaml:"close" json:"close"`
	Volume    float64   `yaml:"volume" json:"volume"`
}

// Price returns the representative price for trigger evaluation.
func (t Tick) Price() float64 {
	return t.Close
}

// DateRange is one contiguous window of stored candles.
type DateRange struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Validate checks that the range is well formed and not inverted.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New(errors.ErrCodeInvalidDateRange, "date range must have both start and end")
	}

	if r.End.Before(r.Start) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "date range is inverted: %s is after %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}

	return nil
}

// Pair is a trading pair symbol containing exactly one separator character
// between the base and quote asset, e.g. "BTC/USD".
type Pair string

// PairSeparators are the characters accepted between base and quote asset.
const PairSeparators = "/-_"

// Split returns the base and quote assets of the pair.
func (p Pair) Split() (base, quote string, err error) {
	symbol := string(p)

	sepIndex := -1

	for i, c := range symbol {
		if strings.ContainsRune(PairSeparators, c) {
			if sepIndex != -1 {
				return "", "", errors.Newf(errors.ErrCodeInvalidPairSymbol,
					"pair %q contains more than one separator", symbol)
			}

			sepIndex = i
		}
	}

	if sepIndex <= 0 || sepIndex == len(symbol)-1 {
		return "", "", errors.Newf(errors.ErrCodeInvalidPairSymbol,
			"pair %q must contain exactly one separator between base and quote", symbol)
	}

	return symbol[:sepIndex], symbol[sepIndex+1:], nil
}

// Validate checks the pair symbol shape.
func (p Pair) Validate() error {
	_, _, err := p.Split()

	return err
}

// String implements fmt.Stringer.
func (p Pair) String() string {
	return string(p)
}

var _ fmt.Stringer = Pair("")
