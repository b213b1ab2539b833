// Package memory is a process-local Storage used when no database path is
// configured and in tests.
package memory

import (
	"context"
	"sync"
)

type KV struct {
	mu     sync.RWMutex
	values map[string]map[string][]byte
}

func NewKV() *KV {
	return &KV{values: make(map[string]map[string][]byte)}
}

func (kv *KV) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	v, ok := kv.values[scope][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (kv *KV) Set(ctx context.Context, scope, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()

	bucket, ok := kv.values[scope]
	if !ok {
		bucket = make(map[string][]byte)
		kv.values[scope] = bucket
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	bucket[key] = stored
	return nil
}
