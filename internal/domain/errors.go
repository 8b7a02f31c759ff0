package domain

import "errors"

var (
	// ErrStorage marks failures of the persisted rate table (open, create, read or write).
	ErrStorage = errors.New("rate storage failure")

	ErrBaseUnsupported = errors.New("base currency not supported")
)
