package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps documents under a root directory of an afero filesystem.
type LocalStore struct {
	fs   afero.Fs
	root string
}

// NewLocalStore stores files on the OS filesystem under root.
func NewLocalStore(root string) *LocalStore {
	return NewLocalStoreFs(afero.NewOsFs(), root)
}

// NewLocalStoreFs is NewLocalStore over an arbitrary filesystem.
func NewLocalStoreFs(fs afero.Fs, root string) *LocalStore {
	if root == "" {
		root = "uploads"
	}
	return &LocalStore{fs: fs, root: root}
}

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := afero.WriteReader(s.fs, path, r); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return path, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, location string) error {
	if err := s.fs.Remove(location); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", location, err)
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, key), nil
}
