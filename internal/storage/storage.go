// Package storage persists uploaded file blobs under a local uploads root.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store is the byte storage consumed by admission and processing.
type Store interface {
	Store(content []byte, name string) (string, error)
	Read(path string) ([]byte, error)
	Exists(path string) bool
}

// FileStore keeps blobs on the local filesystem.
type FileStore struct {
	root string
}

// NewFileStore creates the uploads root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("storage: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

// Store writes the blob under a sanitized name and returns its path.
func (s *FileStore) Store(content []byte, name string) (string, error) {
	if s == nil {
		return "", errors.New("storage: nil store")
	}
	path := filepath.Join(s.root, sanitizeName(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads a stored blob.
func (s *FileStore) Read(path string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("storage: nil store")
	}
	return os.ReadFile(path)
}

// Exists reports whether the blob is still present.
func (s *FileStore) Exists(path string) bool {
	if s == nil {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// sanitizeName strips directory components and characters that do not belong
// in a stored filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." {
		return "upload.dat"
	}
	return name
}
