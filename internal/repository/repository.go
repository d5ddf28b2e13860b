package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// DocumentStore is durable key-value storage holding whole documents.
type DocumentStore interface {
	HealthCheck(ctx context.Context) error
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
	Close() error
}
