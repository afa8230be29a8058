package shadow

import (
	"fmt"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// DefaultMinWallHeight is the smallest drop in meters treated as a building
// wall rather than terrain relief.
const DefaultMinWallHeight = 2.0

// DeriveWalls extracts wall height and wall aspect grids from a DSM. A wall
// exists where a cell stands at least minHeight above one of its four edge
// neighbors; its height is the largest such drop and its aspect the compass
// direction of that drop, i.e. the direction the vertical face points toward.
// minHeight <= 0 selects DefaultMinWallHeight.
func DeriveWalls(dsm *raster.Grid, minHeight float64) (heights, aspects *raster.Grid, err error) {
	if dsm == nil || dsm.Rows() == 0 || dsm.Cols() == 0 {
		return nil, nil, fmt.Errorf("%w: missing height grid", ErrInvalidConfiguration)
	}
	if minHeight <= 0 {
		minHeight = DefaultMinWallHeight
	}

	rows, cols := dsm.Rows(), dsm.Cols()
	heights = dsm.Clone()
	heights.Fill(0)
	aspects = dsm.Clone()
	aspects.Fill(0)

	dirs := [4]struct {
		dr, dc  int
		azimuth float64
	}{
		{-1, 0, 0},   // north
		{0, 1, 90},   // east
		{1, 0, 180},  // south
		{0, -1, 270}, // west
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			h := dsm.At(i, j)
			best := 0.0
			bestAz := 0.0
			for _, d := range dirs {
				ni, nj := i+d.dr, j+d.dc
				if ni < 0 || ni >= rows || nj < 0 || nj >= cols {
					continue
				}
				if drop := h - dsm.At(ni, nj); drop > best {
					best = drop
					bestAz = d.azimuth
				}
			}
			if best >= minHeight {
				heights.Set(i, j, best)
				aspects.Set(i, j, bestAz)
			}
		}
	}
	return heights, aspects, nil
}
