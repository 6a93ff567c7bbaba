// Package interfaces defines service contracts for Finsight
package interfaces

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a scoped state key does not exist.
// Coordination guards depend on distinguishing absent from empty.
// It lives here so backend packages can return it without importing
// the storage package that wires them up.
var ErrNotFound = errors.New("state key not found")

// StateStore is the scoped durable key/value store used for all per-query
// workflow state. Scope is the query instance trace identifier. Values are
// JSON-encoded by callers via the helpers in the storage package.
//
// Get returns ErrNotFound from the implementing package when the key is
// absent; coordination guards rely on distinguishing absent from empty.
type StateStore interface {
	// Get retrieves the raw value for a scoped key
	Get(ctx context.Context, scope, key string) ([]byte, error)

	// Set stores the raw value for a scoped key
	Set(ctx context.Context, scope, key string, value []byte) error

	// Delete removes a scoped key; deleting an absent key is a no-op
	Delete(ctx context.Context, scope, key string) error

	// Clear removes every key in a scope
	Clear(ctx context.Context, scope string) error
}

// StorageManager coordinates the storage backends.
type StorageManager interface {
	// StateStore returns the scoped workflow state store
	StateStore() StateStore

	// Close releases all storage resources
	Close() error
}
