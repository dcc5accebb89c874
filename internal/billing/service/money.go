package service

import "github.com/shopspring/decimal"

// round2 rounds half away from zero to the cent.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func formatMoney(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}
