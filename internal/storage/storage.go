package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when a requested media object is missing.
var ErrNotExist = errors.New("object does not exist")

// ObjectStorage defines the media operations common to all backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}
