package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes images under Dir and serves them from BaseURL.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func (d *DiskStore) path(key string) (string, string) {
	clean := filepath.Clean("/" + key)
	return filepath.Join(d.Dir, clean), clean
}

func (d *DiskStore) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, clean := d.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("disk: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("disk: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("disk: write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("disk: close %s: %w", key, err)
	}

	return strings.TrimRight(d.BaseURL, "/") + filepath.ToSlash(clean), nil
}

func (d *DiskStore) Delete(_ context.Context, key string) error {
	path, _ := d.path(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("disk: remove %s: %w", key, err)
	}
	return nil
}
