package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been written or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persisted keyed record boundary both dashboard roles share.
// It is deliberately small: the alert channel treats it as a last-write-wins
// message bus, so anything beyond Get/Set/Delete would overpromise.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
