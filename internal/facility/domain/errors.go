package domain

import "errors"

var ErrDuplicateOverride = errors.New("duplicate_override")
