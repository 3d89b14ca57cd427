package storage

import (
	"context"
	"errors"
)

// Store is the durable key-value interface the cart store persists through.
// Consumers define this interface, not the Redis implementation.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

var ErrNotFound = errors.New("key not found")
