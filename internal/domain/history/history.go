// Package history keeps a bounded in-memory log of recent shadow
// computations for the stats endpoint.
package history

import (
	"sync"
	"time"

	"github.com/cityscale/shadowcast/internal/domain/model"
)

// defaultCapacity bounds the log when no capacity option is given.
const defaultCapacity = 32

// Record summarizes one completed shadow computation.
type Record struct {
	Timestamp        time.Time         `json:"timestamp"`
	Sun              model.SunPosition `json:"sun"`
	ShadowedFraction float64           `json:"shadowed_fraction"`
	Steps            int               `json:"steps"`
	DurationMS       int64             `json:"duration_ms"`
}

// Log is a fixed-capacity ring of computation records. Oldest entries are
// evicted first. Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	records []Record
	head    int
	count   int
}

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithCapacity sets how many records the log retains.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.records = make([]Record, n)
		}
	}
}

// New creates a log with the given options.
func New(opts ...Option) *Log {
	l := &Log{records: make([]Record, defaultCapacity)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add appends a record, evicting the oldest when full.
func (l *Log) Add(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[l.head] = r
	l.head = (l.head + 1) % len(l.records)
	if l.count < len(l.records) {
		l.count++
	}
}

// Recent returns the retained records, newest first.
func (l *Log) Recent() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - 1 - i + len(l.records)) % len(l.records)
		out[i] = l.records[idx]
	}
	return out
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Cap returns the log capacity.
func (l *Log) Cap() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
