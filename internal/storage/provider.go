package storage

import (
	"context"
	"io"
)

// Provider is an object store for binary media
type Provider interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Save(ctx context.Context, key string, body io.ReadSeeker) error
	Delete(ctx context.Context, key string) error
}
