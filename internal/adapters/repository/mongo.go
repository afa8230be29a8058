package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/pkg/metrics"
)

// snapshotDoc is the persisted document shape. The shadow_matrix field keeps
// its historical name and content: a gzip-compressed serialized matrix. Sun
// geometry and dimensions are stored alongside so a document can be decoded
// without sidecar context.
type snapshotDoc struct {
	SnapshotID   string    `bson:"snapshot_id"`
	Timestamp    time.Time `bson:"timestamp"`
	Azimuth      float64   `bson:"azimuth"`
	Elevation    float64   `bson:"elevation"`
	Rows         int       `bson:"rows"`
	Cols         int       `bson:"cols"`
	ShadowMatrix []byte    `bson:"shadow_matrix"`
	WallMatrix   []byte    `bson:"wall_matrix,omitempty"`
}

// MongoStore persists snapshots to a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	opTimeout  time.Duration
}

// NewMongoStore connects to MongoDB and pings it within the configured
// timeout. A failed connection surfaces as ErrConnect so the caller can fall
// back to the in-memory store.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	client, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(cfg.ConnectionURI()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		opTimeout:  cfg.timeout(),
	}, nil
}

// Save inserts one snapshot document.
func (s *MongoStore) Save(ctx context.Context, snap model.Snapshot) error {
	shadowBytes, err := encodeGrid(snap.Shadow)
	if err != nil {
		return err
	}

	doc := snapshotDoc{
		SnapshotID:   snap.ID,
		Timestamp:    snap.Timestamp.UTC(),
		Azimuth:      snap.Sun.AzimuthDeg,
		Elevation:    snap.Sun.ElevationDeg,
		Rows:         snap.Shadow.Rows(),
		Cols:         snap.Shadow.Cols(),
		ShadowMatrix: shadowBytes,
	}
	if snap.WallSunlit != nil {
		if doc.WallMatrix, err = encodeGrid(snap.WallSunlit); err != nil {
			return err
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.collection.InsertOne(opCtx, doc); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot by timestamp.
func (s *MongoStore) Latest(ctx context.Context) (model.Snapshot, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var doc snapshotDoc
	err := s.collection.FindOne(opCtx, bson.D{},
		mongoopts.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("find latest snapshot: %w", err)
	}

	snap := model.Snapshot{
		ID:        doc.SnapshotID,
		Timestamp: doc.Timestamp,
		Sun: model.SunPosition{
			AzimuthDeg:   doc.Azimuth,
			ElevationDeg: doc.Elevation,
		},
	}
	if snap.Shadow, err = decodeGrid(doc.ShadowMatrix); err != nil {
		return model.Snapshot{}, err
	}
	if len(doc.WallMatrix) > 0 {
		if snap.WallSunlit, err = decodeGrid(doc.WallMatrix); err != nil {
			return model.Snapshot{}, err
		}
	}
	return snap, nil
}

// Count returns the number of stored snapshot documents.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := s.collection.CountDocuments(opCtx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	metrics.UpdateStoreSnapshots(n)
	return n, nil
}

// Kind names the backing store.
func (s *MongoStore) Kind() string { return "mongo" }

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Disconnect(opCtx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
