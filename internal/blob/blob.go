// Package blob provides blob storage for uploaded media: one durable object
// per key, addressed by a retrieval URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ember/internal/observability"
)

// Store writes blobs and returns durable retrieval URLs.
type Store interface {
	// Put stores the blob under key and returns its retrieval URL.
	Put(ctx context.Context, key string, r io.Reader) (string, error)
}

// FileStore is a filesystem-backed Store. Objects live under root and are
// addressed as baseURL/key.
type FileStore struct {
	root    string
	baseURL string
	log     *observability.Logger
}

// NewFileStore creates the storage root if needed.
func NewFileStore(root, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     observability.Component("blob"),
	}, nil
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, r)
	if err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	observability.BlobUploadBytes.Observe(float64(n))
	s.log.Info("blob stored", "key", key, "bytes", n)

	return s.baseURL + "/" + key, nil
}
