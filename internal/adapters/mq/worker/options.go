package worker

import (
	"time"

	"github.com/cityscale/shadowcast/pkg/logger"
)

// Option applies a configuration option to the PersistWorker.
type Option func(*PersistWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *PersistWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *PersistWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSaveTimeout bounds how long a single store save may take.
func WithSaveTimeout(d time.Duration) Option {
	return func(w *PersistWorker) {
		if d > 0 {
			w.saveTimeout = d
		}
	}
}
