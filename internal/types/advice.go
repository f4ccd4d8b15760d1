package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// TriggerDirection says which way the price must cross the threshold for a
// conditional order to fire.
type TriggerDirection string

const (
	// TriggerDirectionDown fires when the price drops to or below the
	// threshold (stop-loss style).
	TriggerDirectionDown TriggerDirection = "down"
	// TriggerDirectionUp fires when the price rises to or above the
	// threshold (take-profit style).
	TriggerDirectionUp TriggerDirection = "up"
)

// TriggerCondition is the price condition attached to a conditional advice.
type TriggerCondition struct {
	Direction TriggerDirection `yaml:"direction" json:"direction" validate:"required,oneof=down up"`
	Price     float64          `yaml:"price" json:"price" validate:"gt=0"`
}

// Satisfied reports whether the given price meets the condition.
func (c TriggerCondition) Satisfied(price float64) bool {
	switch c.Direction {
	case TriggerDirectionDown:
		return price <= c.Price
	case TriggerDirectionUp:
		return price >= c.Price
	}

	return false
}

// Advice is a strategy's recommendation to buy or sell, possibly
// conditional on a trigger.
type Advice struct {
	ID     string `yaml:"id" json:"id" validate:"required"`
	Pair   Pair   `yaml:"pair" json:"pair" validate:"required"`
	Action Action `yaml:"action" json:"action" validate:"required,oneof=buy sell"`
	// Amount is the requested order size in asset units. When None, the
	// paper trader sizes the order from the available balance.
	Amount optional.Option[float64] `yaml:"amount" json:"amount"`
	// Trigger makes the advice conditional: the order only fires when the
	// trigger condition is met by a later price tick.
	Trigger optional.Option[TriggerCondition] `yaml:"trigger" json:"trigger"`
	Date    time.Time                         `yaml:"date" json:"date"`
}
