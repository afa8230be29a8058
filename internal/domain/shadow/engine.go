// Package shadow casts shadow maps over a digital surface model for a given
// sun position.
//
// The engine uses iterative shadow-volume projection: a working copy of the
// terrain is repeatedly shifted one cell toward the sun and lowered by the
// height a sun ray loses over that distance, and each cell keeps the maximum
// of its own value and the shifted neighbor's. After the sweep, a cell whose
// shadow volume exceeds its terrain height is occluded by something up-sun.
// The whole-grid formulation avoids per-pixel ray marching and makes
// self-occlusion structurally impossible: a cell's own height re-enters its
// volume only after being lowered.
package shadow

import (
	"context"
	"fmt"
	"math"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

const (
	// DefaultEpsilon is the occlusion tolerance in meters. It sits far below
	// the vertical precision of survey rasters (~1 cm) and far above
	// accumulated float64 rounding at terrain magnitudes.
	DefaultEpsilon = 1e-6

	degToRad = math.Pi / 180

	// axisSnap clears float dust from the step vector so exact-degree
	// azimuths sample whole cells instead of interpolating by 1e-16.
	axisSnap = 1e-12
)

// Input carries one shadow computation request. Wall grids are optional but
// must be supplied together and share the DSM's dimensions.
type Input struct {
	DSM        *raster.Grid // surface heights in meters, required
	WallHeight *raster.Grid // wall heights in meters, 0 = no wall
	WallAspect *raster.Grid // compass degrees each wall face points toward
	Azimuth    float64      // sun compass degrees clockwise from north
	Elevation  float64      // sun degrees above the horizon
	CellSize   float64      // meters per grid cell, > 0
}

// Result holds freshly allocated output grids; the caller owns them.
type Result struct {
	// Shadow holds illumination per cell: 1 sunlit, 0 shadowed, and
	// intermediate values when penumbra softening is enabled.
	Shadow *raster.Grid
	// WallSunlit holds the sunlit height fraction of each wall cell in
	// [0, 1]. Nil unless wall grids were supplied.
	WallSunlit *raster.Grid
	// Steps is the number of sweep iterations executed.
	Steps int
}

// Engine computes shadow maps. It is stateless between calls; concurrent
// Compute invocations are safe as long as each caller treats the shared DSM
// as read-only, which the engine itself does.
type Engine struct {
	epsilon  float64
	penumbra float64
	maxSteps int
}

// New creates an engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute casts shadows for one sun position. The input grids are never
// mutated. Elevation at or below the horizon short-circuits to full shadow.
func (e *Engine) Compute(ctx context.Context, in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	if in.Elevation <= 0 {
		// No ray geometry exists; everything including walls is dark.
		dark := in.DSM.Clone()
		dark.Fill(0)
		res := Result{Shadow: dark}
		if in.WallHeight != nil {
			res.WallSunlit = in.DSM.Clone()
			res.WallSunlit.Fill(0)
		}
		return res, nil
	}

	vol, steps, err := e.sweep(ctx, in)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Shadow: e.illumination(in.DSM, vol),
		Steps:  steps,
	}
	if in.WallHeight != nil {
		res.WallSunlit = e.wallSunlit(in, vol)
	}
	return res, nil
}

func (in Input) validate() error {
	if in.DSM == nil || in.DSM.Rows() == 0 || in.DSM.Cols() == 0 {
		return fmt.Errorf("%w: missing height grid", ErrInvalidConfiguration)
	}
	if in.CellSize <= 0 {
		return fmt.Errorf("%w: cell size %v", ErrInvalidConfiguration, in.CellSize)
	}
	if (in.WallHeight == nil) != (in.WallAspect == nil) {
		return fmt.Errorf("%w: wall height and wall aspect grids must be supplied together", ErrInvalidConfiguration)
	}
	if in.WallHeight != nil && (!in.DSM.SameDims(in.WallHeight) || !in.DSM.SameDims(in.WallAspect)) {
		return fmt.Errorf("%w: wall grid dimensions differ from height grid", ErrInvalidConfiguration)
	}
	return nil
}

// sweep runs the shift, lower, max-accumulate passes and returns the final
// shadow volume with the number of passes executed. Each pass reads only the
// previous volume; cells whose sample position falls outside the grid keep
// their current value, so no synthetic out-of-grid terrain is assumed.
func (e *Engine) sweep(ctx context.Context, in Input) (*raster.Grid, int, error) {
	rows, cols := in.DSM.Rows(), in.DSM.Cols()

	az := in.Azimuth * degToRad
	el := in.Elevation * degToRad

	// One pass samples one cell toward the sun. Row 0 is north, so the
	// northward component maps to a negative row step.
	stepRow := snapAxis(-math.Cos(az))
	stepCol := snapAxis(math.Sin(az))
	drop := in.CellSize * math.Tan(el)

	span := in.DSM.Max() - in.DSM.Min()
	limit := e.stepLimit(span, drop, stepRow, stepCol, rows, cols)

	vol := in.DSM.Clone()
	next := in.DSM.Clone()

	maxR := float64(rows - 1)
	maxC := float64(cols - 1)
	steps := 0
	for k := 1; k <= limit; k++ {
		select {
		case <-ctx.Done():
			return nil, steps, fmt.Errorf("shadow sweep stopped after %d passes: %w", steps, ctx.Err())
		default:
		}

		vv := vol.Values()
		nv := next.Values()
		changed := false
		for i := 0; i < rows; i++ {
			srcR := float64(i) + stepRow
			rowIn := srcR >= 0 && srcR <= maxR
			base := i * cols
			for j := 0; j < cols; j++ {
				cur := vv[base+j]
				nv[base+j] = cur
				if !rowIn {
					continue
				}
				srcC := float64(j) + stepCol
				if srcC < 0 || srcC > maxC {
					continue
				}
				cand := vol.Bilinear(srcR, srcC) - drop
				if cand > cur {
					nv[base+j] = cand
					changed = true
				}
			}
		}
		vol, next = next, vol
		steps = k
		if !changed {
			// Fixed point; further passes cannot raise anything.
			break
		}
	}
	return vol, steps, nil
}

// stepLimit bounds the sweep: beyond it the shifted terrain has dropped below
// every original height, or the accumulated shift has walked off the grid.
func (e *Engine) stepLimit(span, drop, stepRow, stepCol float64, rows, cols int) int {
	if span <= 0 || drop <= 0 {
		return 0
	}
	limit := int(math.Ceil(span / drop))
	if s := math.Abs(stepRow); s > 0 {
		if byRows := int(math.Ceil(float64(rows) / s)); byRows < limit {
			limit = byRows
		}
	}
	if s := math.Abs(stepCol); s > 0 {
		if byCols := int(math.Ceil(float64(cols) / s)); byCols < limit {
			limit = byCols
		}
	}
	if e.maxSteps > 0 && e.maxSteps < limit {
		limit = e.maxSteps
	}
	return limit
}

func snapAxis(v float64) float64 {
	switch {
	case math.Abs(v) < axisSnap:
		return 0
	case math.Abs(v-1) < axisSnap:
		return 1
	case math.Abs(v+1) < axisSnap:
		return -1
	}
	return v
}

// illumination converts the finished shadow volume into the output grid.
func (e *Engine) illumination(dsm, vol *raster.Grid) *raster.Grid {
	out := dsm.Clone()
	ov := out.Values()
	dv := dsm.Values()
	vv := vol.Values()
	for i := range ov {
		ov[i] = e.light(vv[i] - dv[i])
	}
	return out
}

// light maps occlusion excess in meters to illumination in [0, 1].
func (e *Engine) light(excess float64) float64 {
	if excess <= e.epsilon {
		return 1
	}
	if e.penumbra <= 0 {
		return 0
	}
	f := 1 - excess/e.penumbra
	if f < 0 {
		return 0
	}
	return f
}

// wallSunlit computes the sunlit height fraction of every wall cell. The
// occlusion excess at a wall's base is the height of terrain shadow climbing
// its face; faces turned away from the sun receive nothing at any elevation.
func (e *Engine) wallSunlit(in Input, vol *raster.Grid) *raster.Grid {
	out := in.DSM.Clone()
	out.Fill(0)
	ov := out.Values()
	hv := in.WallHeight.Values()
	av := in.WallAspect.Values()
	dv := in.DSM.Values()
	vv := vol.Values()
	az := in.Azimuth * degToRad
	for i := range ov {
		h := hv[i]
		if h <= 0 {
			continue
		}
		if math.Cos(av[i]*degToRad-az) <= 0 {
			continue
		}
		shaded := vv[i] - dv[i]
		if shaded < 0 {
			shaded = 0
		}
		if shaded > h {
			shaded = h
		}
		ov[i] = 1 - shaded/h
	}
	return out
}
