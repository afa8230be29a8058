package service

import (
	"time"

	repository "github.com/cityscale/shadowcast/internal/adapters/repository"
	"github.com/cityscale/shadowcast/internal/domain/raster"
	"github.com/cityscale/shadowcast/internal/domain/render"
	"github.com/cityscale/shadowcast/internal/domain/shadow"
	"github.com/cityscale/shadowcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithListenAddr records the HTTP listen address for reporting in stats.
func WithListenAddr(addr string) Option {
	return func(s *Service) {
		s.listenAddr = addr
	}
}

// WithLocation sets the observer latitude and longitude in degrees.
func WithLocation(latitude, longitude float64) Option {
	return func(s *Service) {
		s.latitude = latitude
		s.longitude = longitude
	}
}

// WithCellSize sets the DSM cell size in meters.
func WithCellSize(size float64) Option {
	return func(s *Service) {
		if size > 0 {
			s.cellSize = size
		}
	}
}

// WithDSM supplies the terrain grid directly.
func WithDSM(g *raster.Grid) Option {
	return func(s *Service) {
		s.terrain = g
	}
}

// WithDSMPath loads the terrain grid from a .npy file on Start.
func WithDSMPath(path string) Option {
	return func(s *Service) {
		s.dsmPath = path
	}
}

// WithSyntheticTerrain configures the generated terrain used when no DSM is
// supplied.
func WithSyntheticTerrain(size int, seed int64) Option {
	return func(s *Service) {
		if size > 0 {
			s.syntheticSize = size
		}
		s.syntheticSeed = seed
	}
}

// WithWalls supplies wall height and aspect grids directly.
func WithWalls(heights, aspects *raster.Grid) Option {
	return func(s *Service) {
		s.wallHeight = heights
		s.wallAspect = aspects
	}
}

// WithWallPaths loads wall height and aspect grids from .npy files on Start.
func WithWallPaths(heightPath, aspectPath string) Option {
	return func(s *Service) {
		s.wallHeightPath = heightPath
		s.wallAspectPath = aspectPath
	}
}

// WithDeriveWalls derives wall grids from terrain discontinuities taller
// than minHeight.
func WithDeriveWalls(minHeight float64) Option {
	return func(s *Service) {
		s.deriveWalls = true
		if minHeight > 0 {
			s.minWallHeight = minHeight
		}
	}
}

// WithQueueSize sets the snapshot queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of persist workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithStore supplies a snapshot store directly, bypassing store resolution.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithMongo enables the Mongo store with the given connection settings.
func WithMongo(cfg repository.MongoConfig) Option {
	return func(s *Service) {
		s.mongo = &cfg
	}
}

// WithEngineOptions configures the shadow engine built on Start.
func WithEngineOptions(opts ...shadow.Option) Option {
	return func(s *Service) {
		s.engineOpts = opts
	}
}

// WithEngine supplies a shadow engine directly.
func WithEngine(e *shadow.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithRenderer supplies a renderer directly.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithRecomputeInterval enables periodic recomputation of the shadow map.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recompute = d
		}
	}
}

// WithHistorySize sets how many computation records are retained.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
