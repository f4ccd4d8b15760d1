package types

import (
	"math"
	"time"
)

// Action is the direction of an advice, order or trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Fee holds the fee schedule applied to a fill.
type Fee struct {
	// Rate is the fee percentage, e.g. 0.25 for 0.25%.
	Rate float64 `yaml:"rate" json:"rate"`
}

// Trade represents one executed fill, real or simulated. Immutable once
// recorded.
type Trade struct {
	ID        string    `yaml:"id" json:"id" validate:"required"`
	Amount    float64   `yaml:"amount" json:"amount" validate:"gt=0"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" validate:"required"`
	Price     float64   `yaml:"price" json:"price" validate:"gt=0"`
	Fee       Fee       `yaml:"fee" json:"fee"`
}

// OrderSummary describes the most recent order placed by the paper trader.
// All numeric fields default to NaN when no order has been summarized yet;
// callers must check IsEmpty before using the values.
type OrderSummary struct {
	Amount             float64 `yaml:"amount" json:"amount"`
	Price              float64 `yaml:"price" json:"price"`
	FeePercent         float64 `yaml:"fee_percent" json:"fee_percent"`
	OrderExecutionDate float64 `yaml:"order_execution_date" json:"order_execution_date"`
}

// EmptyOrderSummary returns the "no order summary yet" sentinel with every
// field set to NaN.
func EmptyOrderSummary() OrderSummary {
	return OrderSummary{
		Amount:             math.NaN(),
		Price:              math.NaN(),
		FeePercent:         math.NaN(),
		OrderExecutionDate: math.NaN(),
	}
}

// IsEmpty reports whether the summary still carries the unset sentinel.
func (s OrderSummary) IsEmpty() bool {
	return math.IsNaN(s.Amount) &&
		math.IsNaN(s.Price) &&
		math.IsNaN(s.FeePercent) &&
		math.IsNaN(s.OrderExecutionDate)
}

// Equal compares two summaries field for field, treating NaN fields as
// equal so the sentinel compares equal to itself.
func (s OrderSummary) Equal(other OrderSummary) bool {
	eq := func(a, b float64) bool {
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}

		return a == b
	}

	return eq(s.Amount, other.Amount) &&
		eq(s.Price, other.Price) &&
		eq(s.FeePercent, other.FeePercent) &&
		eq(s.OrderExecutionDate, other.OrderExecutionDate)
}
