package dsm

import (
	"math"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// Synthetic terrain shape constants.
const (
	noiseCellSize   = 16   // cells per noise lattice step
	rollingHeight   = 6.0  // amplitude of the rolling ground in meters
	buildingMin     = 8.0  // shortest building in meters
	buildingMax     = 28.0 // tallest building in meters
	buildingPerCell = 0.04 // building density per lattice cell
)

// Synthetic generates a deterministic size x size terrain: rolling ground
// from value noise plus scattered flat-roofed rectangular buildings. The
// same seed always produces the same grid.
func Synthetic(size int, seed int64) *raster.Grid {
	if size <= 0 {
		size = 1
	}
	g, _ := raster.New(size, size)

	s := uint32(seed)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			g.Set(r, c, rollingHeight*valueNoise(s, float64(r)/noiseCellSize, float64(c)/noiseCellSize))
		}
	}

	// Scatter buildings on the lattice so footprints never straddle a
	// noise ridge awkwardly.
	lattice := size / noiseCellSize
	for lr := 0; lr < lattice; lr++ {
		for lc := 0; lc < lattice; lc++ {
			h := hash2(s^0xb5297a4d, int32(lr), int32(lc))
			if float64(h%1000)/1000 >= buildingPerCell*10 {
				continue
			}
			placeBuilding(g, s, lr*noiseCellSize, lc*noiseCellSize)
		}
	}
	return g
}

// placeBuilding stamps one flat-roofed rectangle anchored in a lattice cell.
func placeBuilding(g *raster.Grid, seed uint32, baseR, baseC int) {
	h := hash2(seed^0x68e31da4, int32(baseR), int32(baseC))
	height := buildingMin + float64(h%1000)/1000*(buildingMax-buildingMin)
	w := 3 + int(h>>10)%8
	d := 3 + int(h>>16)%8
	offR := int(h>>22) % (noiseCellSize - 2)
	offC := int(h>>27) % (noiseCellSize - 2)

	for r := baseR + offR; r < baseR+offR+d && r < g.Rows(); r++ {
		for c := baseC + offC; c < baseC+offC+w && c < g.Cols(); c++ {
			if v := g.At(r, c) + height; v > g.At(r, c) {
				g.Set(r, c, v)
			}
		}
	}
}

// valueNoise interpolates hashed lattice values with a smoothstep fade,
// returning a sample in [0, 1).
func valueNoise(seed uint32, x, y float64) float64 {
	x0 := int32(math.Floor(x))
	y0 := int32(math.Floor(y))
	fx := fade(x - float64(x0))
	fy := fade(y - float64(y0))

	v00 := latticeValue(seed, x0, y0)
	v01 := latticeValue(seed, x0, y0+1)
	v10 := latticeValue(seed, x0+1, y0)
	v11 := latticeValue(seed, x0+1, y0+1)

	return lerp(lerp(v00, v01, fy), lerp(v10, v11, fy), fx)
}

func latticeValue(seed uint32, x, y int32) float64 {
	return float64(hash2(seed, x, y)%4096) / 4096
}

func fade(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// hash32 mixes 32-bit input into a well-distributed 32-bit output.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash2 returns a stable hash for 2-D integer coordinates + seed.
func hash2(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	return hash32(h)
}
