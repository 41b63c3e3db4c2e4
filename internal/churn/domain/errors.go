package domain

import "errors"

var (
	ErrMissingColumn = errors.New("missing_column")
	ErrInvalidValue  = errors.New("invalid_value")
	ErrEmptyTable    = errors.New("empty_table")
)
