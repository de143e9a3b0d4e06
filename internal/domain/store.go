package domain

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the server-side counterpart of the browser's local storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every value whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([][]byte, error)
	Close() error
}
