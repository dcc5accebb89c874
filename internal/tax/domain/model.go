package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxBehavior is the facility-level tax treatment. Stored values are engine
// constants; do not rename once used.
type TaxBehavior string

const (
	TaxBehaviorInheritClient TaxBehavior = "INHERIT_CLIENT" // client rate added on top
	TaxBehaviorPreTax        TaxBehavior = "PRE_TAX"        // rate is pre-tax, client rate added on top
	TaxBehaviorTaxIncluded   TaxBehavior = "TAX_INCLUDED"   // rate already includes tax
)

// ParseTaxBehavior normalizes a stored value. Empty means INHERIT_CLIENT.
func ParseTaxBehavior(raw string) (TaxBehavior, error) {
	switch TaxBehavior(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", TaxBehaviorInheritClient:
		return TaxBehaviorInheritClient, nil
	case TaxBehaviorPreTax:
		return TaxBehaviorPreTax, nil
	case TaxBehaviorTaxIncluded:
		return TaxBehaviorTaxIncluded, nil
	default:
		return "", ErrInvalidTaxBehavior
	}
}

// Normalize maps unrecognized values to INHERIT_CLIENT.
func (b TaxBehavior) Normalize() TaxBehavior {
	parsed, err := ParseTaxBehavior(string(b))
	if err != nil {
		return TaxBehaviorInheritClient
	}
	return parsed
}

// ClientTaxPolicy is the client-level half of the tax decision.
// Rate is a fraction (0.0825 for 8.25%) and is ignored when Exempt.
type ClientTaxPolicy struct {
	Rate   decimal.Decimal
	Exempt bool
}

func (p ClientTaxPolicy) Validate() error {
	if p.Rate.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}

// LineTaxInput is everything needed to tax one line item.
type LineTaxInput struct {
	Amount          decimal.Decimal
	Behavior        TaxBehavior
	IncludedInTotal bool
	Policy          ClientTaxPolicy
}
