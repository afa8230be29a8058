// Package dsm loads and saves digital surface models as .npy rasters and
// generates deterministic synthetic terrain for development and tests.
package dsm

import (
	"fmt"
	"math"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// Load reads a .npy raster into a grid. NaN and infinite samples are
// sanitized to zero, matching how the service has always treated voids in
// survey data.
func Load(path string) (*raster.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadRaster, path, err)
	}

	g, err := raster.FromDense(&m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadRaster, path, err)
	}

	vals := g.Values()
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = 0
		}
	}
	return g, nil
}

// Save writes a grid to path as a .npy raster.
func Save(path string, g *raster.Grid) error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrBadRaster)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster %s: %w", path, err)
	}
	defer f.Close()

	if err := npyio.Write(f, g.ToDense()); err != nil {
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	return nil
}
