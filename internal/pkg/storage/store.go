package storage

import (
	"errors"
	"fmt"
	"io"
)

// ErrStorageIO marks a failure of the underlying object store. Operations
// that hit it are fatal for the current request and retried by the job queue
// in asynchronous mode.
var ErrStorageIO = errors.New("storage i/o failure")

// ErrNotFound is returned by Get for a path that holds no object.
var ErrNotFound = errors.New("object not found")

// ObjectStore is a path-addressed binary store for originals, derivatives
// and transient archives.
type ObjectStore interface {
	Put(path string, r io.Reader) error
	Get(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
}

func wrapIOErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrStorageIO, op, path, err)
}
