package types

import "time"

// Event names are part of the wire contract between plugins. The bus
// delivers payloads by these names to every plugin that declared them
// handled.
const (
	EventAdvice               = "advice"
	EventPortfolioChange      = "portfolio-change"
	EventPortfolioValueChange = "portfolio-value-change"
	EventTradeCompleted       = "trade-completed"
	EventTradeInitiated       = "trade-initiated"
	EventTriggerAborted       = "trigger-aborted"
	EventTriggerCreated       = "trigger-created"
	EventTriggerFired         = "trigger-fired"
)

// TradeInitiated is emitted when a trigger fires or an unconditional
// advice is accepted; the ledger turns it into a TradeCompleted.
type TradeInitiated struct {
	ID       string    `yaml:"id" json:"id"`
	AdviceID string    `yaml:"advice_id" json:"advice_id"`
	Pair     Pair      `yaml:"pair" json:"pair"`
	Action   Action    `yaml:"action" json:"action"`
	Price    float64   `yaml:"price" json:"price"`
	Date     time.Time `yaml:"date" json:"date"`
}

// TradeCompleted is produced exactly once per completed simulated trade.
type TradeCompleted struct {
	ID             string    `yaml:"id" json:"id"`
	AdviceID       string    `yaml:"advice_id" json:"advice_id"`
	Action         Action    `yaml:"action" json:"action"`
	Cost           float64   `yaml:"cost" json:"cost"`
	Amount         float64   `yaml:"amount" json:"amount"`
	Price          float64   `yaml:"price" json:"price"`
	Portfolio      Portfolio `yaml:"portfolio" json:"portfolio"`
	Balance        float64   `yaml:"balance" json:"balance"`
	Date           time.Time `yaml:"date" json:"date"`
	FeePercent     float64   `yaml:"fee_percent" json:"fee_percent"`
	EffectivePrice float64   `yaml:"effective_price" json:"effective_price"`
}

// TriggerCreated is emitted when an advice with a condition registers a
// new pending trigger.
type TriggerCreated struct {
	ID        string           `yaml:"id" json:"id"`
	AdviceID  string           `yaml:"advice_id" json:"advice_id"`
	Action    Action           `yaml:"action" json:"action"`
	Condition TriggerCondition `yaml:"condition" json:"condition"`
	Date      time.Time        `yaml:"date" json:"date"`
}

// TriggerFired is emitted when a pending trigger's condition is met.
type TriggerFired struct {
	ID       string    `yaml:"id" json:"id"`
	AdviceID string    `yaml:"advice_id" json:"advice_id"`
	Price    float64   `yaml:"price" json:"price"`
	Date     time.Time `yaml:"date" json:"date"`
}

// TriggerAborted is emitted when a pending trigger is cancelled or its
// condition is invalidated.
type TriggerAborted struct {
	ID       string    `yaml:"id" json:"id"`
	AdviceID string    `yaml:"advice_id" json:"advice_id"`
	Reason   string    `yaml:"reason" json:"reason"`
	Date     time.Time `yaml:"date" json:"date"`
}

// PortfolioChange is emitted after the ledger mutates the portfolio.
type PortfolioChange struct {
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Date      time.Time `yaml:"date" json:"date"`
}

// PortfolioValueChange is emitted after the ledger recomputes the
// portfolio value at the fill price.
type PortfolioValueChange struct {
	Value   float64   `yaml:"value" json:"value"`
	Balance float64   `yaml:"balance" json:"balance"`
	Date    time.Time `yaml:"date" json:"date"`
}
