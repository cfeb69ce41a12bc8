package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/careplus/onboarding/store"
)

// KV is an in-memory record store used by tests. It honors the same
// last-write-wins contract as the mongo-backed implementation.
type KV struct {
	mu      sync.Mutex
	records map[string][]byte

	// FailWrites makes every Set return an error, for storage failure tests.
	FailWrites bool
}

func NewKV() *KV {
	return &KV{
		records: make(map[string][]byte),
	}
}

var _ store.KV = &KV{}

func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	raw, ok := k.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	value := make([]byte, len(raw))
	copy(value, raw)
	return value, nil
}

func (k *KV) Set(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.FailWrites {
		return fmt.Errorf("record store unavailable")
	}
	raw := make([]byte, len(value))
	copy(raw, value)
	k.records[key] = raw
	return nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.records, key)
	return nil
}

func (k *KV) Keys() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	keys := make([]string, 0, len(k.records))
	for key := range k.records {
		keys = append(keys, key)
	}
	return keys
}
