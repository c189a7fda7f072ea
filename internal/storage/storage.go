// Package storage holds the key-value persistence used to mirror the catalog
// and the order ledger. Every backend stores opaque JSON documents under a
// fixed key.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Persister is the key-value contract the stores depend on.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
