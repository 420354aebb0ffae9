// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney rounds amount half-up to two decimal places.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(2), Currency: currency}
}

func (m Money) Float() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) String() string {
	return m.Currency + " " + m.Amount.StringFixed(2)
}
