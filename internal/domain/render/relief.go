package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"gonum.org/v1/plot/palette/moreland"

	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// ambientLight keeps shadowed and back-facing surfaces visible instead of
// fully black.
const ambientLight = 0.35

// Relief renders a shaded-relief view of the surface: elevation mapped
// through the palette, lit by Lambertian hillshading from the sun vector and
// darkened by the illumination grid. It stands in for the 3-D surface plot
// of the original artifact set; north is at the top.
func (r *Renderer) Relief(dsm, illum *raster.Grid, sun model.SunPosition, cellSize float64) ([]byte, error) {
	if dsm == nil || illum == nil {
		return nil, ErrMissingGrid
	}
	if !dsm.SameDims(illum) {
		return nil, fmt.Errorf("%w: surface %dx%d, illumination %dx%d",
			ErrDimensionMismatch, dsm.Rows(), dsm.Cols(), illum.Rows(), illum.Cols())
	}
	if cellSize <= 0 {
		cellSize = 1
	}

	rows, cols := dsm.Rows(), dsm.Cols()

	// Sun direction in an east, north, up frame.
	az := sun.AzimuthDeg * math.Pi / 180
	el := sun.ElevationDeg * math.Pi / 180
	lx := math.Sin(az) * math.Cos(el)
	ly := math.Cos(az) * math.Cos(el)
	lz := math.Sin(el)

	lo, hi := dsm.Min(), dsm.Max()
	span := hi - lo
	colors := moreland.Kindlmann().Palette(r.paletteColors).Colors()

	img := image.NewNRGBA(image.Rect(0, 0, r.widthPx, r.heightPx))
	for y := 0; y < r.heightPx; y++ {
		i := y * rows / r.heightPx
		for x := 0; x < r.widthPx; x++ {
			j := x * cols / r.widthPx

			// Surface normal from central differences; east and north
			// gradients fall back to one-sided at the grid edges.
			dhdE := gradient(dsm, i, j, 0, 1, cellSize)
			dhdN := gradient(dsm, i, j, -1, 0, cellSize)
			nx, ny, nz := -dhdE, -dhdN, 1.0
			norm := math.Sqrt(nx*nx + ny*ny + nz*nz)

			shade := (nx*lx + ny*ly + nz*lz) / norm
			if shade < 0 {
				shade = 0
			}
			light := ambientLight + (1-ambientLight)*shade*illum.At(i, j)

			t := 0.5
			if span > 0 {
				t = (dsm.At(i, j) - lo) / span
			}
			base := colors[int(t*float64(len(colors)-1))]
			img.SetNRGBA(x, y, scaleColor(base, light))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// gradient measures the surface slope at (i, j) along the (di, dj) axis in
// meters of height per meter of ground.
func gradient(g *raster.Grid, i, j, di, dj int, cellSize float64) float64 {
	ai, aj := i+di, j+dj
	bi, bj := i-di, j-dj
	dist := 2.0
	if ai < 0 || ai >= g.Rows() || aj < 0 || aj >= g.Cols() {
		ai, aj = i, j
		dist = 1
	}
	if bi < 0 || bi >= g.Rows() || bj < 0 || bj >= g.Cols() {
		bi, bj = i, j
		dist--
	}
	if dist == 0 {
		return 0
	}
	return (g.At(ai, aj) - g.At(bi, bj)) / (dist * cellSize)
}

func scaleColor(c color.Color, light float64) color.NRGBA {
	if light > 1 {
		light = 1
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA{
		R: uint8(float64(r>>8) * light),
		G: uint8(float64(g>>8) * light),
		B: uint8(float64(b>>8) * light),
		A: 0xff,
	}
}
