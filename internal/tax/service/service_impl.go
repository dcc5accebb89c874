package service

import (
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
)

type calculator struct{}

func NewCalculator() taxdomain.Calculator {
	return calculator{}
}

func (calculator) LineTax(in taxdomain.LineTaxInput) decimal.Decimal {
	return ComputeLineTax(in)
}

// ComputeLineTax applies the facility tax behavior against the client policy.
// Excluded lines and exempt clients carry no tax.
func ComputeLineTax(in taxdomain.LineTaxInput) decimal.Decimal {
	if !in.IncludedInTotal || in.Policy.Exempt {
		return decimal.Zero
	}

	switch in.Behavior.Normalize() {
	case taxdomain.TaxBehaviorTaxIncluded:
		return decimal.Zero
	default:
		if in.Amount.Sign() <= 0 || in.Policy.Rate.Sign() <= 0 {
			return decimal.Zero
		}
		return in.Amount.Mul(in.Policy.Rate).Round(2)
	}
}
