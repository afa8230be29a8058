package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cityscale/shadowcast/internal/adapters/http/api"
	"github.com/cityscale/shadowcast/internal/adapters/http/swagger"
	"github.com/cityscale/shadowcast/internal/adapters/repository"
	app "github.com/cityscale/shadowcast/internal/app"
	"github.com/cityscale/shadowcast/internal/config"
	"github.com/cityscale/shadowcast/internal/domain/render"
	"github.com/cityscale/shadowcast/internal/domain/shadow"
	"github.com/cityscale/shadowcast/pkg/logger"
	"github.com/cityscale/shadowcast/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second // renders can take a while on large rasters
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	svc := app.New(serviceOptions(cfg)...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API documentation routes
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) []app.Option {
	engineOpts := []shadow.Option{
		shadow.WithEpsilon(cfg.ShadowEpsilon),
	}
	if cfg.Penumbra > 0 {
		engineOpts = append(engineOpts, shadow.WithPenumbra(cfg.Penumbra))
	}
	if cfg.MaxSweepSteps > 0 {
		engineOpts = append(engineOpts, shadow.WithMaxSteps(cfg.MaxSweepSteps))
	}

	opts := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithListenAddr(cfg.Addr),
		app.WithLocation(cfg.Latitude, cfg.Longitude),
		app.WithCellSize(cfg.CellSize),
		app.WithSyntheticTerrain(cfg.SyntheticSize, cfg.SyntheticSeed),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWorkerCount(cfg.StoreWorkers),
		app.WithHistorySize(cfg.HistorySize),
		app.WithEngineOptions(engineOpts...),
		app.WithRenderer(render.New(render.WithSize(cfg.RenderWidth, cfg.RenderHeight))),
	}

	if cfg.DSMPath != "" {
		opts = append(opts, app.WithDSMPath(cfg.DSMPath))
	}

	switch cfg.WallsSource {
	case config.WallsDerive:
		opts = append(opts, app.WithDeriveWalls(cfg.MinWallHeight))
	case config.WallsFile:
		opts = append(opts, app.WithWallPaths(cfg.WallsPath, cfg.WallAspectPath))
	}

	if cfg.RecomputeIntervalSec > 0 {
		opts = append(opts, app.WithRecomputeInterval(time.Duration(cfg.RecomputeIntervalSec)*time.Second))
	}

	if cfg.MongoEnabled {
		opts = append(opts, app.WithMongo(repository.MongoConfig{
			URI:        cfg.MongoURI,
			Host:       cfg.MongoHost,
			Port:       cfg.MongoPort,
			Username:   cfg.MongoUsername,
			Password:   cfg.MongoPassword,
			UseSRV:     cfg.MongoUseSRV,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Timeout:    time.Duration(cfg.MongoTimeoutSec) * time.Second,
		}))
	}

	return opts
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval) // Update every 10 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval) // Update every 5 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes the store and sun gauges as a side effect
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
