package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore persists an addressable blob and returns its public URL.
// Implemented by DiskStore; tests supply fakes.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// DiskStore writes objects under a root directory served statically by the
// HTTP layer. Names may contain subdirectories (e.g. "<user>/<uuid>.mp3").
type DiskStore struct {
	root          string
	publicBaseURL string
}

// NewDiskStore creates the store and ensures the root directory exists
func NewDiskStore(root, publicBaseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object store root: %w", err)
	}
	return &DiskStore{
		root:          root,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Put writes the object and returns its public URL
func (s *DiskStore) Put(_ context.Context, name string, data []byte) (string, error) {
	clean := filepath.Clean(name)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object name: %s", name)
	}

	path := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return s.publicBaseURL + "/" + filepath.ToSlash(clean), nil
}
