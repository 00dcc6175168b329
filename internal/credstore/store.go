package credstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Store reads, writes and deletes opaque string values by key.
type Store interface {
	// Get returns the stored value. Returns ErrNotFound if the key is absent or empty.
	Get(ctx context.Context, key string) (string, error)

	// Set persists the value, overwriting any existing one.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
