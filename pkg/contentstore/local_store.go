package contentstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore reads report bodies from a directory tree. Used in dev and in
// tests; Release removes the file just like the S3 store drops the object.
type LocalStore struct {
	root string
}

var _ ContentStore = &LocalStore{}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (l *LocalStore) path(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid content key: %s", key)
	}
	return filepath.Join(l.root, cleaned), nil
}

func (l *LocalStore) Fetch(ctx context.Context, key string) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), nil
}

func (l *LocalStore) Release(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove content file: %w", err)
	}
	return nil
}

func (l *LocalStore) Upload(ctx context.Context, key string, body string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(body), 0o644)
}
