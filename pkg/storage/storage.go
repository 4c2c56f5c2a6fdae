// Package storage publishes exported documents to a file store: a local
// directory or an S3-compatible bucket. Every stored object has a URL the
// user can open or share.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
)

// FileStore stores named objects.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Put stores data at path, replacing any existing object.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// Open opens the object for reading. A missing object yields an error
	// wrapping os.ErrNotExist.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the address at which the object can be fetched.
	URL(path string) string
}

// ExportPrefix is the folder exported documents are published under.
const ExportPrefix = "exports"

// Publish stores data under a fresh exports/{uuid}/ folder keeping name as
// the file name, and returns the object's URL.
func Publish(ctx context.Context, s FileStore, name string, data []byte, contentType string) (string, error) {
	key := path.Join(ExportPrefix, uuid.NewString(), path.Base(name))
	if err := s.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("storage: publish %s: %w", name, err)
	}
	return s.URL(key), nil
}
