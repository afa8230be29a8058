// Package oneshot runs a single shadow computation offline and writes the
// artifacts to disk, no server required.
package oneshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cityscale/shadowcast/internal/adapters/dsm"
	"github.com/cityscale/shadowcast/internal/domain/raster"
	"github.com/cityscale/shadowcast/internal/domain/render"
	"github.com/cityscale/shadowcast/internal/domain/shadow"
	"github.com/cityscale/shadowcast/internal/domain/solar"
	"github.com/cityscale/shadowcast/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	artifactPermission  = 0600
)

// Run executes one shadow computation and writes heatmap.png, relief.png,
// and shadow.npy into the output directory.
func Run(ctx context.Context, cfg *Config) (*Summary, error) {
	start := time.Now()
	log := logger.Get().Named("oneshot")

	terrain, err := resolveTerrain(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var wallHeight, wallAspect *raster.Grid
	if cfg.Walls {
		wallHeight, wallAspect, err = shadow.DeriveWalls(terrain, shadow.DefaultMinWallHeight)
		if err != nil {
			return nil, fmt.Errorf("derive walls: %w", err)
		}
	}

	at := cfg.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	sun := solar.Position(at, cfg.Latitude, cfg.Longitude)
	log.Info(ctx, "sun position resolved",
		logger.String("at", at.Format(time.RFC3339)),
		logger.Float64("azimuth", sun.AzimuthDeg),
		logger.Float64("elevation", sun.ElevationDeg),
	)

	var engineOpts []shadow.Option
	if cfg.Penumbra > 0 {
		engineOpts = append(engineOpts, shadow.WithPenumbra(cfg.Penumbra))
	}
	engine := shadow.New(engineOpts...)

	res, err := engine.Compute(ctx, shadow.Input{
		DSM:        terrain,
		WallHeight: wallHeight,
		WallAspect: wallAspect,
		Azimuth:    sun.AzimuthDeg,
		Elevation:  sun.ElevationDeg,
		CellSize:   cfg.CellSize,
	})
	if err != nil {
		return nil, fmt.Errorf("compute shadow: %w", err)
	}

	renderer := render.New()
	heatmap, err := renderer.Heatmap(res.Shadow)
	if err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}
	relief, err := renderer.Relief(terrain, res.Shadow, sun, cfg.CellSize)
	if err != nil {
		return nil, fmt.Errorf("render relief: %w", err)
	}

	if err := os.MkdirAll(cfg.OutDir, directoryPermission); err != nil {
		return nil, fmt.Errorf("create output dir %q: %w", cfg.OutDir, err)
	}

	sum := &Summary{
		Rows:             terrain.Rows(),
		Cols:             terrain.Cols(),
		AzimuthDeg:       sun.AzimuthDeg,
		ElevationDeg:     sun.ElevationDeg,
		ShadowedFraction: shadowedFraction(res.Shadow),
		Steps:            res.Steps,
		HeatmapPath:      filepath.Join(cfg.OutDir, "heatmap.png"),
		ReliefPath:       filepath.Join(cfg.OutDir, "relief.png"),
		ShadowPath:       filepath.Join(cfg.OutDir, "shadow.npy"),
	}

	if err := os.WriteFile(sum.HeatmapPath, heatmap, artifactPermission); err != nil {
		return nil, fmt.Errorf("write heatmap: %w", err)
	}
	if err := os.WriteFile(sum.ReliefPath, relief, artifactPermission); err != nil {
		return nil, fmt.Errorf("write relief: %w", err)
	}
	if err := dsm.Save(sum.ShadowPath, res.Shadow); err != nil {
		return nil, fmt.Errorf("write shadow grid: %w", err)
	}

	sum.Duration = time.Since(start)
	log.Info(ctx, "artifacts written",
		logger.String("dir", cfg.OutDir),
		logger.Duration("took", sum.Duration),
	)
	return sum, nil
}

func resolveTerrain(ctx context.Context, cfg *Config, log logger.Logger) (*raster.Grid, error) {
	if cfg.DSMPath != "" {
		g, err := dsm.Load(cfg.DSMPath)
		if err != nil {
			return nil, fmt.Errorf("load dsm %q: %w", cfg.DSMPath, err)
		}
		log.Info(ctx, "loaded dsm",
			logger.String("path", cfg.DSMPath),
			logger.Int("rows", g.Rows()),
			logger.Int("cols", g.Cols()),
		)
		return g, nil
	}
	g := dsm.Synthetic(cfg.Size, cfg.Seed)
	log.Info(ctx, "generated synthetic terrain",
		logger.Int("size", cfg.Size),
		logger.Int("seed", int(cfg.Seed)),
	)
	return g, nil
}

func shadowedFraction(illum *raster.Grid) float64 {
	vals := illum.Values()
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += 1 - v
	}
	return sum / float64(len(vals))
}

// Print writes a human readable summary to stdout.
func (s *Summary) Print() {
	fmt.Printf("grid:      %dx%d\n", s.Rows, s.Cols)
	fmt.Printf("sun:       azimuth %.2f deg, elevation %.2f deg\n", s.AzimuthDeg, s.ElevationDeg)
	fmt.Printf("shadowed:  %.1f%%\n", s.ShadowedFraction*100)
	fmt.Printf("steps:     %d\n", s.Steps)
	fmt.Printf("took:      %s\n", s.Duration.Round(time.Millisecond))
	fmt.Printf("artifacts: %s, %s, %s\n", s.HeatmapPath, s.ReliefPath, s.ShadowPath)
}
