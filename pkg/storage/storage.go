package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Head when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	Metadata     map[string]string
}

// PutInput is an object to store.
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is the subset of blob storage the material workflow needs.
type ObjectStore interface {
	Put(ctx context.Context, in PutInput) error
	// List returns every object under prefix, following continuation tokens.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
