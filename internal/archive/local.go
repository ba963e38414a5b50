package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Dir archives documents on the local filesystem.
type Dir struct {
	basePath  string
	urlPrefix string // e.g. "/archive"
}

// NewDir creates a filesystem archive rooted at basePath.
func NewDir(basePath, urlPrefix string) *Dir {
	return &Dir{
		basePath:  basePath,
		urlPrefix: urlPrefix,
	}
}

func (d *Dir) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	dest := filepath.Join(d.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", key, err)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%s: %w", key, ErrExists)
	}
	if err != nil {
		return "", fmt.Errorf("creating file %s: %w", key, err)
	}

	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("writing file %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing file %s: %w", key, err)
	}

	return d.urlPrefix + "/" + key, nil
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.basePath, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", key, err)
	}
	return data, nil
}

// URL ignores expiry; the directory has no access control of its own.
func (d *Dir) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return d.urlPrefix + "/" + key, nil
}
