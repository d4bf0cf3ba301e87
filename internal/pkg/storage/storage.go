package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when nothing is stored at the path.
var ErrNotExist = errors.New("storage: object does not exist")

// Storage stores opaque blobs addressed by a relative, slash-separated path.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the blob at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the blob at path. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
}
