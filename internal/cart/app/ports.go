package app

import "context"

// Storage is a durable key-value store partitioned by scope. A scope is one
// browser session; key names the value inside it.
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, scope, key string) ([]byte, bool, error)
	Set(ctx context.Context, scope, key string, value []byte) error
}
