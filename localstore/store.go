// Package localstore is the machine-local key/value store backups are kept in.
package localstore

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("empty key")

// Store is a flat key/value store scoped to one installation.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
