package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"time"
)

const recordsCollectionName = "records"

type record struct {
	Key       string    `bson:"key"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewRecords returns the mongo-backed record store. A single device owns
// a single document per key; writes are replace-upserts so the last write
// wins without any further locking discipline.
func NewRecords(db *mongo.Database, lifecycle fx.Lifecycle) (KV, error) {
	records := &mongoRecords{
		collection: db.Collection(recordsCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return records.Initialize(ctx)
		},
	})

	return records, nil
}

type mongoRecords struct {
	collection *mongo.Collection
}

func (m *mongoRecords) Initialize(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "key", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueRecordKey"),
		},
	})
	return err
}

func (m *mongoRecords) Get(ctx context.Context, key string) ([]byte, error) {
	selector := bson.M{"key": key}

	rec := record{}
	err := m.collection.FindOne(ctx, selector).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("error reading record %q: %w", key, err)
	}

	return rec.Value, nil
}

func (m *mongoRecords) Set(ctx context.Context, key string, value []byte) error {
	selector := bson.M{"key": key}
	replacement := record{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, selector, replacement, opts); err != nil {
		return fmt.Errorf("error writing record %q: %w", key, err)
	}
	return nil
}

func (m *mongoRecords) Delete(ctx context.Context, key string) error {
	selector := bson.M{"key": key}
	if _, err := m.collection.DeleteOne(ctx, selector); err != nil {
		return fmt.Errorf("error deleting record %q: %w", key, err)
	}
	return nil
}
