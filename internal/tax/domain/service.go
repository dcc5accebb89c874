package domain

import "github.com/shopspring/decimal"

// Calculator computes the additive tax for a single line item.
type Calculator interface {
	LineTax(in LineTaxInput) decimal.Decimal
}
