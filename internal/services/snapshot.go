package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// snapshotDocID is the fixed _id of the single feed snapshot document
const snapshotDocID = "feed_snapshot"

// snapshotDoc wraps the serialized cache entry for storage
type snapshotDoc struct {
	ID   string `bson:"_id"`
	Data []byte `bson:"data"`
}

// SnapshotStore persists the feed cache's single slot as one MongoDB
// document, so a cached feed survives process restarts. It implements
// cache.Store; the cache treats every failure here as a miss.
type SnapshotStore struct {
	collection *mongo.Collection
}

// NewSnapshotStore creates a snapshot store over the given collection
func NewSnapshotStore(db *mongo.Database, collection string) *SnapshotStore {
	return &SnapshotStore{
		collection: db.Collection(collection),
	}
}

// Load returns the persisted snapshot, or (nil, nil) when none exists
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var doc snapshotDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": snapshotDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return doc.Data, nil
}

// Save upserts the snapshot document
func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	_, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"_id": snapshotDocID},
		snapshotDoc{ID: snapshotDocID, Data: data},
		options.Replace().SetUpsert(true),
	)
	return err
}
