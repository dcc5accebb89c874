package domain

import "errors"

var (
	// ErrClientNotFound is the only fatal resolution error: the client does
	// not exist or belongs to another company.
	ErrClientNotFound = errors.New("client_not_found")

	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidClient  = errors.New("invalid_client")
	ErrInvalidYear    = errors.New("invalid_year")
	ErrInvalidMonth   = errors.New("invalid_month")
)
