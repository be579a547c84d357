// Package storage provides a uniform object-storage adapter keyed by opaque
// string paths. Prefixes are a namespacing convention; nothing outside the
// backends interprets path separators as a filesystem concept.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no object exists at the given path.
var ErrNotFound = errors.New("object not found")

type Storage interface {
	// Save streams data under path, overwriting any existing object, and
	// returns the path it was stored at.
	Save(ctx context.Context, path string, data io.Reader) (string, error)

	// Get returns the object's bytes, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the object and reports whether anything was deleted.
	// Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) (bool, error)

	// DeleteDirectory removes every object whose path starts with prefix and
	// returns the number deleted. An empty prefix match is a no-op.
	DeleteDirectory(ctx context.Context, prefix string) (int, error)

	// ListDirectory returns the paths of every object under prefix.
	ListDirectory(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}
