// Package fsblob stores original document bytes on the filesystem,
// one file per content hash.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store keeps blobs under <root>/<hash>.bin. Content addressing makes
// writes idempotent: the same bytes always land at the same path.
type Store struct {
	root string
}

// New creates a blob store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Put writes the content and returns its locator. The write goes to a
// temp file first so a crash never leaves a half-written blob.
func (s *Store) Put(_ context.Context, hash string, content []byte) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("empty hash: %w", domain.ErrInvalidInput)
	}

	path := s.pathFor(hash)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return path, nil
}

// Get reads the content stored under hash.
func (s *Store) Get(_ context.Context, hash string) ([]byte, error) {
	content, err := os.ReadFile(s.pathFor(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", hash, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return content, nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (s *Store) Delete(_ context.Context, hash string) error {
	err := os.Remove(s.pathFor(hash))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *Store) pathFor(hash string) string {
	return filepath.Join(s.root, hash+".bin")
}
