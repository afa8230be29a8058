// Package repository persists computed shadow snapshots. Two stores exist:
// a MongoDB-backed one matching the service's historical schema, and a
// bounded in-memory one used when the database is disabled or unreachable.
package repository

import (
	"context"

	"github.com/cityscale/shadowcast/internal/domain/model"
)

// Store provides write and read access to persisted snapshots.
type Store interface {
	// Save persists one snapshot.
	Save(ctx context.Context, snap model.Snapshot) error

	// Latest returns the most recently saved snapshot.
	// Returns ErrNotFound when nothing has been saved.
	Latest(ctx context.Context) (model.Snapshot, error)

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) (int64, error)

	// Kind names the backing store for stats and logs.
	Kind() string

	// Close releases store resources.
	Close(ctx context.Context) error
}
