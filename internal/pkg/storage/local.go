package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore stores objects as files under a root directory. Object paths are
// slash-separated and resolved relative to the root.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating storage root %s: %w", dir, err)
	}
	return &LocalStore{root: dir}, nil
}

func (s *LocalStore) fullPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Put writes an object, creating intermediate directories as needed.
func (s *LocalStore) Put(path string, r io.Reader) error {
	full := s.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return wrapIOErr("put", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return wrapIOErr("put", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return wrapIOErr("put", path, err)
	}
	return nil
}

// Get opens an object for reading.
func (s *LocalStore) Get(path string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, wrapIOErr("get", path, err)
	}
	return f, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *LocalStore) Delete(path string) error {
	if err := os.Remove(s.fullPath(path)); err != nil && !os.IsNotExist(err) {
		return wrapIOErr("delete", path, err)
	}
	return nil
}

// Exists reports whether an object is present at path.
func (s *LocalStore) Exists(path string) bool {
	_, err := os.Stat(s.fullPath(path))
	return err == nil
}
