// Package render turns shadow and surface grids into PNG artifacts.
package render

import (
	"bytes"
	"fmt"
	"image"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// Default output geometry, matching the 10x8 inch figures at 100 dpi the
// service historically produced.
const (
	defaultWidthPx  = 1000
	defaultHeightPx = 800
	defaultColors   = 256
)

// Renderer produces PNG image artifacts from grids. It is stateless and safe
// for concurrent use.
type Renderer struct {
	widthPx       int
	heightPx      int
	paletteColors int
}

// New creates a renderer with the given options.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		widthPx:       defaultWidthPx,
		heightPx:      defaultHeightPx,
		paletteColors: defaultColors,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Heatmap renders the grid as a false-color heat map with north at the top
// and returns the encoded PNG.
func (r *Renderer) Heatmap(g *raster.Grid) ([]byte, error) {
	if g == nil {
		return nil, ErrMissingGrid
	}

	pal := moreland.Kindlmann().Palette(r.paletteColors)
	h := plotter.NewHeatMap(gridXYZ{g}, pal)
	if h.Min == h.Max {
		// A flat field would otherwise divide by zero during color lookup.
		h.Max = h.Min + 1
	}

	p := plot.New()
	p.X.Label.Text = "east (cells)"
	p.Y.Label.Text = "north (cells)"
	p.Add(h)

	return r.encodePlot(p)
}

// encodePlot draws the plot onto a canvas of the configured pixel size and
// encodes it as PNG.
func (r *Renderer) encodePlot(p *plot.Plot) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.widthPx, r.heightPx))
	canvas := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// gridXYZ adapts a raster grid to the heat map plotter. Plot Y grows upward,
// so rows are reversed to keep row 0 on the northern (top) edge.
type gridXYZ struct {
	g *raster.Grid
}

func (w gridXYZ) Dims() (c, r int)   { return w.g.Cols(), w.g.Rows() }
func (w gridXYZ) Z(c, r int) float64 { return w.g.At(w.g.Rows()-1-r, c) }
func (w gridXYZ) X(c int) float64    { return float64(c) }
func (w gridXYZ) Y(r int) float64    { return float64(r) }
