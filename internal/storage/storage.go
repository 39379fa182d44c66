package storage

import (
	"context"
	"errors"
	"io"
)

// Package storage contains blob storage abstractions for document content.
// Blobs are keyed by bare filename; implementations must reject any name
// that could escape their root (separators, "..", absolute paths).

var (
	// ErrInvalidName is returned when a blob name is empty or would resolve
	// outside the store's root.
	ErrInvalidName = errors.New("invalid blob name")
	// ErrBlobNotFound is returned by Get when no blob exists under the name.
	ErrBlobNotFound = errors.New("blob not found")
)

// BlobStore persists and retrieves raw file bytes by filename.
// Methods use context and streaming readers; callers own returned ReadClosers.
type BlobStore interface {
	// Put writes the blob under name, creating or overwriting it.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Get opens the blob for streaming read.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// Exists reports whether a readable blob is present under name.
	Exists(ctx context.Context, name string) (bool, error)
	// Delete removes the blob. Deleting an absent blob is a no-op: the
	// metadata record, not the blob, is the source of truth for existence.
	Delete(ctx context.Context, name string) error
}
