package raster

import "errors"

// Sentinel kinds for grid construction errors.
var (
	ErrEmptyGrid         = errors.New("empty grid")
	ErrRaggedGrid        = errors.New("ragged grid rows")
	ErrDimensionMismatch = errors.New("grid dimension mismatch")
)
