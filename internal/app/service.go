// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cityscale/shadowcast/internal/adapters/dsm"
	snapqueue "github.com/cityscale/shadowcast/internal/adapters/mq/queue"
	workerpool "github.com/cityscale/shadowcast/internal/adapters/mq/worker"
	repository "github.com/cityscale/shadowcast/internal/adapters/repository"
	"github.com/cityscale/shadowcast/internal/domain/history"
	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/internal/domain/raster"
	"github.com/cityscale/shadowcast/internal/domain/render"
	"github.com/cityscale/shadowcast/internal/domain/shadow"
	"github.com/cityscale/shadowcast/internal/domain/solar"
	"github.com/cityscale/shadowcast/pkg/logger"
	"github.com/cityscale/shadowcast/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultLatitude      = 29.73463
	defaultLongitude     = -95.30052
	defaultCellSize      = 1.0
	defaultSyntheticSize = 128
	defaultSyntheticSeed = 1
	defaultQueueSize     = 64
	defaultWorkerCount   = 2
	defaultHistorySize   = 32

	shutdownGrace = 30 * time.Second
)

// Service computes shadow maps over a DSM and implements the API
// dependencies for the shadowcast system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine   *shadow.Engine
	renderer *render.Renderer
	store    repository.Store
	queue    snapqueue.Queue
	pool     *workerpool.Pool
	history  *history.Log

	// Scene inputs
	terrain    *raster.Grid
	wallHeight *raster.Grid
	wallAspect *raster.Grid

	// Configuration
	listenAddr     string
	latitude       float64
	longitude      float64
	cellSize       float64
	dsmPath        string
	syntheticSize  int
	syntheticSeed  int64
	deriveWalls    bool
	minWallHeight  float64
	wallHeightPath string
	wallAspectPath string
	engineOpts     []shadow.Option
	queueSize      int
	workerCount    int
	historySize    int
	recompute      time.Duration
	mongo          *repository.MongoConfig

	// State
	started      bool
	startedAt    time.Time
	computeCount atomic.Int64
	stopCh       chan struct{}

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		latitude:      defaultLatitude,
		longitude:     defaultLongitude,
		cellSize:      defaultCellSize,
		syntheticSize: defaultSyntheticSize,
		syntheticSeed: defaultSyntheticSeed,
		minWallHeight: shadow.DefaultMinWallHeight,
		queueSize:     defaultQueueSize,
		workerCount:   defaultWorkerCount,
		historySize:   defaultHistorySize,
		stopCh:        make(chan struct{}),
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting shadowcast service...")

	if err := s.resolveScene(ctx); err != nil {
		return err
	}
	s.resolveStore(ctx)

	if s.engine == nil {
		s.engine = shadow.New(s.engineOpts...)
	}
	if s.renderer == nil {
		s.renderer = render.New()
	}
	if s.history == nil {
		s.history = history.New(history.WithCapacity(s.historySize))
	}

	s.queue = snapqueue.NewInMemoryQueue(
		snapqueue.WithCapacity(s.queueSize),
		snapqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	if s.recompute > 0 {
		go s.recomputeLoop(ctx)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "shadowcast service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dsmRows", s.terrain.Rows()),
		logger.Int("dsmCols", s.terrain.Cols()),
		logger.String("store", s.store.Kind()),
	)

	return nil
}

// resolveScene loads the DSM and wall grids according to configuration.
// Priority: explicit grid, then file, then synthetic terrain.
func (s *Service) resolveScene(ctx context.Context) error {
	if s.terrain == nil && s.dsmPath != "" {
		g, err := dsm.Load(s.dsmPath)
		if err != nil {
			return fmt.Errorf("load dsm %q: %w", s.dsmPath, err)
		}
		s.terrain = g
		s.logger.Info(ctx, "loaded dsm from file",
			logger.String("path", s.dsmPath),
			logger.Int("rows", g.Rows()),
			logger.Int("cols", g.Cols()),
		)
	}
	if s.terrain == nil {
		s.terrain = dsm.Synthetic(s.syntheticSize, s.syntheticSeed)
		s.logger.Info(ctx, "generated synthetic terrain",
			logger.Int("size", s.syntheticSize),
			logger.Int("seed", int(s.syntheticSeed)),
		)
	}

	if s.wallHeight == nil && s.wallHeightPath != "" {
		heights, err := dsm.Load(s.wallHeightPath)
		if err != nil {
			return fmt.Errorf("load wall heights %q: %w", s.wallHeightPath, err)
		}
		aspects, err := dsm.Load(s.wallAspectPath)
		if err != nil {
			return fmt.Errorf("load wall aspects %q: %w", s.wallAspectPath, err)
		}
		s.wallHeight, s.wallAspect = heights, aspects
	}
	if s.wallHeight == nil && s.deriveWalls {
		heights, aspects, err := shadow.DeriveWalls(s.terrain, s.minWallHeight)
		if err != nil {
			return fmt.Errorf("derive walls: %w", err)
		}
		s.wallHeight, s.wallAspect = heights, aspects
		s.logger.Info(ctx, "derived walls from terrain",
			logger.Float64("minHeight", s.minWallHeight),
		)
	}
	return nil
}

// resolveStore picks the snapshot store. A Mongo connection failure is not
// fatal; the service degrades to the in-memory ring so shadow computation
// stays available.
func (s *Service) resolveStore(ctx context.Context) {
	if s.store != nil {
		return
	}
	if s.mongo != nil {
		store, err := repository.NewMongoStore(ctx, *s.mongo)
		if err == nil {
			s.store = store
			s.logger.Info(ctx, "using mongo store",
				logger.String("database", s.mongo.Database),
				logger.String("collection", s.mongo.Collection),
			)
			return
		}
		metrics.RecordErrorByComponent("store", "connect_error")
		s.logger.Warn(ctx, "mongo unavailable, falling back to memory store",
			logger.Error(err),
		)
	}
	s.store = repository.NewMemoryStore()
	s.logger.Info(ctx, "using memory store")
}

// recomputeLoop periodically refreshes the shadow map so the persisted
// history tracks the sun without external callers.
func (s *Service) recomputeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.recompute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.CalculateShadow(ctx, time.Time{}); err != nil {
				s.logger.Error(ctx, "scheduled recompute failed", logger.Error(err))
			}
		}
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping shadowcast service...")

	// Signal the recompute loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	// Shut down the pool; it closes the queue and drains buffered snapshots
	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	// Close the snapshot store
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			s.logger.Warn(ctx, "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "shadowcast service stopped")
}

// CalculateShadow computes the shadow state of the scene at the given
// instant, renders the report images, and queues the snapshot for
// persistence. A zero time means "now".
func (s *Service) CalculateShadow(ctx context.Context, at time.Time) (model.Report, error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return model.Report{}, ErrNotStarted
	}
	engine, renderer := s.engine, s.renderer
	terrain, wallHeight, wallAspect := s.terrain, s.wallHeight, s.wallAspect
	lat, lon, cellSize := s.latitude, s.longitude, s.cellSize
	s.mu.RUnlock()

	if at.IsZero() {
		at = time.Now().UTC()
	}

	sun := solar.Position(at, lat, lon)
	metrics.UpdateSunPosition(sun.AzimuthDeg, sun.ElevationDeg)

	start := time.Now()
	res, err := engine.Compute(ctx, shadow.Input{
		DSM:        terrain,
		WallHeight: wallHeight,
		WallAspect: wallAspect,
		Azimuth:    sun.AzimuthDeg,
		Elevation:  sun.ElevationDeg,
		CellSize:   cellSize,
	})
	durationMS := time.Since(start).Milliseconds()
	computeMS := float64(durationMS)
	if err != nil {
		metrics.RecordShadowComputeError()
		metrics.RecordErrorByComponent("engine", "compute_error")
		return model.Report{}, fmt.Errorf("compute shadow: %w", err)
	}
	metrics.RecordShadowComputation()
	metrics.RecordShadowComputeDuration(computeMS)
	metrics.RecordShadowSweepSteps(res.Steps)

	fraction := shadowedFraction(res.Shadow)
	metrics.UpdateShadowedFraction(fraction)

	heatmap, err := s.renderTimed(ctx, "heatmap", func() ([]byte, error) {
		return renderer.Heatmap(res.Shadow)
	})
	if err != nil {
		return model.Report{}, fmt.Errorf("render heatmap: %w", err)
	}
	relief, err := s.renderTimed(ctx, "relief", func() ([]byte, error) {
		return renderer.Relief(terrain, res.Shadow, sun, cellSize)
	})
	if err != nil {
		return model.Report{}, fmt.Errorf("render relief: %w", err)
	}

	snap := model.Snapshot{
		ID:         uuid.NewString(),
		Timestamp:  at,
		Sun:        sun,
		Shadow:     res.Shadow,
		WallSunlit: res.WallSunlit,
	}
	if ok := s.queue.Enqueue(ctx, snap); !ok {
		// Persistence is best effort; the report still goes out.
		s.logger.Warn(ctx, "snapshot dropped, queue full",
			logger.String("snapshotID", snap.ID),
		)
	}

	s.computeCount.Add(1)
	s.history.Add(history.Record{
		Timestamp:        at,
		Sun:              sun,
		ShadowedFraction: fraction,
		Steps:            res.Steps,
		DurationMS:       durationMS,
	})

	return model.Report{
		Timestamp:   at.Format(model.ReportTimeFormat),
		Heatmap:     heatmap,
		SurfacePlot: relief,
	}, nil
}

// renderTimed runs one render call and records its metrics.
func (s *Service) renderTimed(_ context.Context, kind string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	metrics.RecordRenderDuration(kind, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRenderError(kind)
	}
	return out, err
}

// shadowedFraction is the mean shadow coverage over the grid, with partially
// lit penumbra cells contributing their dark remainder.
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

// Recent returns the most recent computation records, newest first.
func (s *Service) Recent() []history.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.history == nil {
		return nil
	}
	return s.history.Recent()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"latitude":    s.latitude,
		"longitude":   s.longitude,
		"cell_size":   s.cellSize,
	}

	if s.listenAddr != "" {
		stats["addr"] = s.listenAddr
	}

	if s.started {
		stats["uptime"] = time.Since(s.startedAt).Round(time.Second).String()
		stats["store"] = s.store.Kind()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["queueCapacity"] = s.queue.Cap()
		stats["computeCount"] = s.computeCount.Load()
		stats["dsm_rows"] = s.terrain.Rows()
		stats["dsm_cols"] = s.terrain.Cols()
		stats["has_walls"] = s.wallHeight != nil

		recent := s.history.Recent()
		stats["history"] = recent
		if len(recent) > 0 {
			stats["last_timestamp"] = recent[0].Timestamp.Format(model.ReportTimeFormat)
			stats["last_sun"] = recent[0].Sun
			stats["last_shadowed_fraction"] = recent[0].ShadowedFraction
		}

		if count, err := s.store.Count(ctx); err == nil {
			stats["snapshots"] = count
			metrics.UpdateStoreSnapshots(count)
		}
	}

	return stats
}
