package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ContextTimeout = time.Duration(20) * time.Second

	ErrNotFound = errors.New("record not found")
)

// Record names used by the onboarding pipeline. These are logical keys,
// not file paths or collection names.
const (
	KeyEnrollmentSession   = "enrollment.session"
	KeyPatientProfile      = "patient.profile"
	KeyUserAddedConditions = "patient.userAddedConditions"
)

// KV is the record store contract: named keys mapped to JSON values.
// Writes are last-write-wins and there are no transactions across keys;
// callers must tolerate partial multi-key writes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Read unmarshals the record stored under key into a value of type T.
// Returns ErrNotFound when no record exists.
func Read[T any](ctx context.Context, kv KV, key string) (*T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	value := new(T)
	if err := json.Unmarshal(raw, value); err != nil {
		return nil, fmt.Errorf("error decoding record %q: %w", key, err)
	}
	return value, nil
}

// Write serializes value as JSON and stores it under key, replacing any
// previous record.
func Write(ctx context.Context, kv KV, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding record %q: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

func NewDbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ContextTimeout)
}
