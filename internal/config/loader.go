package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SHADOWCAST_CONFIG is set
//  3. env (prefix SHADOWCAST_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SHADOWCAST_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SHADOWCAST_ADDR, SHADOWCAST_QUEUE_SIZE, ...
	// Map env keys like SHADOWCAST_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SHADOWCAST_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "shadowcast_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges. Violations wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Latitude < -90 || c.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of [-90, 90]", ErrInvalidConfig, c.Latitude)
	case c.Longitude < -180 || c.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of [-180, 180]", ErrInvalidConfig, c.Longitude)
	case c.CellSize <= 0:
		return fmt.Errorf("%w: cell_size %v must be positive", ErrInvalidConfig, c.CellSize)
	case c.SyntheticSize <= 0:
		return fmt.Errorf("%w: synthetic_size %d must be positive", ErrInvalidConfig, c.SyntheticSize)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size %d must be positive", ErrInvalidConfig, c.QueueSize)
	case c.StoreWorkers <= 0:
		return fmt.Errorf("%w: store_workers %d must be positive", ErrInvalidConfig, c.StoreWorkers)
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history_size %d must be positive", ErrInvalidConfig, c.HistorySize)
	case c.RenderWidth <= 0 || c.RenderHeight <= 0:
		return fmt.Errorf("%w: render size %dx%d must be positive", ErrInvalidConfig, c.RenderWidth, c.RenderHeight)
	case c.RecomputeIntervalSec < 0:
		return fmt.Errorf("%w: recompute_interval_sec %d must not be negative", ErrInvalidConfig, c.RecomputeIntervalSec)
	case c.MongoTimeoutSec <= 0:
		return fmt.Errorf("%w: mongo_timeout_sec %d must be positive", ErrInvalidConfig, c.MongoTimeoutSec)
	}

	switch c.WallsSource {
	case WallsNone, WallsDerive:
	case WallsFile:
		if c.WallsPath == "" || c.WallAspectPath == "" {
			return fmt.Errorf("%w: walls_source=file requires walls_path and wall_aspect_path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown walls_source %q", ErrInvalidConfig, c.WallsSource)
	}

	return nil
}
