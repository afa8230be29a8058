package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/cityscale/shadowcast/internal/oneshot"
	"github.com/cityscale/shadowcast/pkg/logger"
)

// Default configuration constants.
const (
	defaultSize      = 128
	defaultSeed      = 1
	defaultLatitude  = 29.73463
	defaultLongitude = -95.30052
	defaultCellSize  = 1.0
	runTimeout       = 10 * time.Minute
)

func main() {
	var (
		dsmPath  = flag.String("dsm", "", "Path to a .npy DSM file (default: synthetic terrain)")
		size     = flag.Int("size", defaultSize, "Synthetic terrain size in cells")
		seed     = flag.Int64("seed", defaultSeed, "Synthetic terrain seed")
		lat      = flag.Float64("lat", defaultLatitude, "Observer latitude in degrees")
		lon      = flag.Float64("lon", defaultLongitude, "Observer longitude in degrees")
		at       = flag.String("at", "", "Instant to compute for, RFC3339 (default: now)")
		cell     = flag.Float64("cell", defaultCellSize, "Cell size in meters")
		penumbra = flag.Float64("penumbra", 0, "Penumbra softening height in meters")
		walls    = flag.String("walls", "none", "Wall handling: none, or derive from the terrain")
		out      = flag.String("out", ".", "Output directory for artifacts")
	)
	flag.Parse()

	deriveWalls := false
	switch *walls {
	case "none":
	case "derive":
		deriveWalls = true
	default:
		os.Stderr.WriteString("invalid -walls; must be none or derive\n")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	var instant time.Time
	if *at != "" {
		parsed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			os.Stderr.WriteString("invalid -at; must be RFC3339: " + err.Error() + "\n")
			os.Exit(2)
		}
		instant = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &oneshot.Config{
		DSMPath:   *dsmPath,
		Size:      *size,
		Seed:      *seed,
		Latitude:  *lat,
		Longitude: *lon,
		At:        instant,
		CellSize:  *cell,
		Penumbra:  *penumbra,
		Walls:     deriveWalls,
		OutDir:    *out,
	}

	summary, err := oneshot.Run(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("shadow computation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	summary.Print()
}
