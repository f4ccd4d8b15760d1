package types

// Portfolio holds the asset and currency balances of one pipeline run.
// Mutated only by the paper trading ledger in response to completed trades.
type Portfolio struct {
	Asset    float64 `yaml:"asset" json:"asset"`
	Currency float64 `yaml:"currency" json:"currency"`
}

// Value returns the portfolio value in quote currency at the given price.
func (p Portfolio) Value(price float64) float64 {
	return p.Currency + p.Asset*price
}
