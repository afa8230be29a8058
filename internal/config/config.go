// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's sentinel kinds.
package config

// Walls source modes.
const (
	WallsNone   = "none"
	WallsDerive = "derive"
	WallsFile   = "file"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":7001".
	Addr string `koanf:"addr"`

	// Latitude and Longitude locate the modeled terrain for sun position.
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`

	// CellSize is the DSM resolution in meters per cell.
	CellSize float64 `koanf:"cell_size"`

	// DSMPath points at a .npy surface raster. Empty selects the synthetic
	// terrain generator.
	DSMPath string `koanf:"dsm_path"`

	// SyntheticSize and SyntheticSeed shape the generated terrain when no
	// DSM file is configured.
	SyntheticSize int   `koanf:"synthetic_size"`
	SyntheticSeed int64 `koanf:"synthetic_seed"`

	// WallsSource selects wall grids: none, derive (from the DSM), or file.
	WallsSource string `koanf:"walls_source"`

	// WallsPath and WallAspectPath locate .npy wall grids for walls_source=file.
	WallsPath      string `koanf:"walls_path"`
	WallAspectPath string `koanf:"wall_aspect_path"`

	// MinWallHeight is the smallest drop in meters treated as a wall when
	// deriving walls from the DSM.
	MinWallHeight float64 `koanf:"min_wall_height"`

	// ShadowEpsilon is the occlusion tolerance in meters.
	ShadowEpsilon float64 `koanf:"shadow_epsilon"`

	// Penumbra softens shadow edges over the given height in meters; 0 keeps
	// binary shadows.
	Penumbra float64 `koanf:"penumbra"`

	// MaxSweepSteps caps sweep iterations; 0 leaves only the natural bound.
	MaxSweepSteps int `koanf:"max_sweep_steps"`

	// QueueSize bounds the in-memory snapshot queue.
	QueueSize int `koanf:"queue_size"`

	// StoreWorkers sets the number of persist workers.
	StoreWorkers int `koanf:"store_workers"`

	// RecomputeIntervalSec schedules background recomputation; 0 disables it.
	RecomputeIntervalSec int `koanf:"recompute_interval_sec"`

	// HistorySize bounds the recent-computation log served by /stats.
	HistorySize int `koanf:"history_size"`

	// RenderWidth and RenderHeight size the PNG artifacts in pixels.
	RenderWidth  int `koanf:"render_width"`
	RenderHeight int `koanf:"render_height"`

	// Mongo connection settings. When disabled, snapshots go to the
	// in-memory store.
	MongoEnabled    bool   `koanf:"mongo_enabled"`
	MongoURI        string `koanf:"mongo_uri"`
	MongoHost       string `koanf:"mongo_host"`
	MongoPort       int    `koanf:"mongo_port"`
	MongoUsername   string `koanf:"mongo_username"`
	MongoPassword   string `koanf:"mongo_password"`
	MongoUseSRV     bool   `koanf:"mongo_use_srv"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`
	MongoTimeoutSec int    `koanf:"mongo_timeout_sec"`
}

// New creates a Config with defaults. The location defaults to the Houston
// site the service has historically modeled.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":7001",
		Latitude:             29.73463,
		Longitude:            -95.30052,
		CellSize:             1.0,
		DSMPath:              "",
		SyntheticSize:        128,
		SyntheticSeed:        1,
		WallsSource:          WallsNone,
		MinWallHeight:        2.0,
		ShadowEpsilon:        1e-6,
		Penumbra:             0,
		MaxSweepSteps:        0,
		QueueSize:            64,
		StoreWorkers:         2,
		RecomputeIntervalSec: 0,
		HistorySize:          32,
		RenderWidth:          1000,
		RenderHeight:         800,
		MongoEnabled:         false,
		MongoHost:            "localhost",
		MongoPort:            27017,
		MongoUseSRV:          false,
		MongoDatabase:        "shadow_matrix",
		MongoCollection:      "shadow_matrices",
		MongoTimeoutSec:      10,
	}
}
