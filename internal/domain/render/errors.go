package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrDimensionMismatch = errors.New("render grid dimensions differ")
	ErrMissingGrid       = errors.New("render grid missing")
)
