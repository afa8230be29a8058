package dsm

import "errors"

// Sentinel kinds for raster IO errors.
var (
	ErrBadRaster = errors.New("bad raster file")
)
