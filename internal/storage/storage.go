// Package storage stores uploaded reviewer files.
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// BlobStore persists reviewer file contents under opaque keys.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	// Path returns a local filesystem path for the key, for collaborators
	// that shell out to external tools.
	Path(key string) string
}

// FSStore is a filesystem-backed BlobStore rooted at a base directory.
type FSStore struct{ base string }

// NewFSStore creates the base directory if needed.
func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	dst := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	return os.Open(s.Path(key))
}

func (s *FSStore) Delete(key string) error {
	err := os.Remove(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Path resolves a key inside the base directory. Keys are rooted first so
// ".." segments cannot climb out of the base.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.base, filepath.Join(string(filepath.Separator), key))
}
