package repository

import (
	"context"
	"sync"

	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/pkg/metrics"
)

// defaultMemoryCapacity bounds the in-memory store when no option is given.
const defaultMemoryCapacity = 128

// MemoryStore keeps the most recent snapshots in a fixed-capacity ring.
// It backs the service when MongoDB is disabled or unreachable at startup.
type MemoryStore struct {
	mu       sync.RWMutex
	snaps    []model.Snapshot
	head     int
	count    int
	total    int64
	capacity int
	closed   bool
}

// NewMemoryStore creates an in-memory snapshot store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{capacity: defaultMemoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.snaps = make([]model.Snapshot, s.capacity)
	return s
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCapacity sets how many snapshots the store retains.
func WithCapacity(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Save retains the snapshot, evicting the oldest when full.
func (s *MemoryStore) Save(_ context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.snaps[s.head] = snap
	s.head = (s.head + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
	s.total++
	metrics.UpdateStoreSnapshots(s.total)
	return nil
}

// Latest returns the most recently saved snapshot.
func (s *MemoryStore) Latest(_ context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return model.Snapshot{}, ErrStoreClosed
	}
	if s.count == 0 {
		return model.Snapshot{}, ErrNotFound
	}
	idx := (s.head - 1 + s.capacity) % s.capacity
	return s.snaps[idx], nil
}

// Count returns the number of snapshots ever saved.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.total, nil
}

// Kind names the backing store.
func (s *MemoryStore) Kind() string { return "memory" }

// Close marks the store closed; subsequent operations fail.
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
