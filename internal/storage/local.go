package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media under a directory on disk, used when no bucket is configured
type LocalStore struct {
	basePath string
}

var _ Provider = (*LocalStore)(nil)

func NewLocalStorage(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create media dir %s: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.OpenInRoot(l.basePath, cleanKey(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(_ context.Context, key string) bool {
	f, err := os.OpenInRoot(l.basePath, cleanKey(key))
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}

func (l *LocalStore) Save(_ context.Context, key string, body io.ReadSeeker) error {
	key = cleanKey(key)
	if key == "" || key == "." {
		return fmt.Errorf("key cannot be empty")
	}

	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return err
	}
	defer root.Close()

	if dir := filepath.Dir(key); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := root.Create(key)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return err
	}
	defer root.Close()

	if err := root.Remove(cleanKey(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func cleanKey(key string) string {
	return filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
}
