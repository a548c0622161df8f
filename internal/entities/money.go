package entities

import "github.com/shopspring/decimal"

func init() {
	// The backend speaks plain JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is an amount in the account currency.
type Money = decimal.Decimal

// NewMoney parses a decimal string such as "12.50".
func NewMoney(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MoneyFromFloat converts a float amount, rounding to cents.
func MoneyFromFloat(f float64) Money {
	return decimal.NewFromFloat(f).Round(2)
}
