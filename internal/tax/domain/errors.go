package domain

import "errors"

var (
	ErrInvalidTaxBehavior = errors.New("invalid_tax_behavior")
	ErrInvalidTaxRate     = errors.New("invalid_tax_rate")
)
