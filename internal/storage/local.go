package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/driveease/service-rental/internal/application"
)

// LocalStore writes images below a directory that is served at PublicURL.
type LocalStore struct {
	dir       string
	publicURL string
}

// NewLocalStore creates a LocalStore, creating dir if needed.
func NewLocalStore(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, publicURL: publicURL}, nil
}

// Dir returns the root directory, for serving it over HTTP.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes the upload and returns its public URL.
func (s *LocalStore) Put(_ context.Context, folder string, upload application.ImageUpload) (string, error) {
	key := objectKey(folder, upload.Filename, upload.ContentType)
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, upload.Reader); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close image file: %w", err)
	}
	return publicURL(s.publicURL, key), nil
}

// Remove deletes a file previously returned by Put. Unknown references are ignored.
func (s *LocalStore) Remove(_ context.Context, ref string) error {
	key, ok := keyFromURL(s.publicURL, ref)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}
