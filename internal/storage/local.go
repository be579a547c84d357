package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as files under a root directory. Object paths
// map to relative file paths; mainly used for development and tests.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (l *LocalStorage) fullPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

func (l *LocalStorage) Save(_ context.Context, path string, data io.Reader) (string, error) {
	full := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (l *LocalStorage) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(_ context.Context, path string) (bool, error) {
	err := os.Remove(l.fullPath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return true, nil
}

func (l *LocalStorage) DeleteDirectory(ctx context.Context, prefix string) (int, error) {
	paths, err := l.ListDirectory(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, nil
	}
	if err := os.RemoveAll(l.fullPath(prefix)); err != nil {
		return 0, fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
	}
	return len(paths), nil
}

func (l *LocalStorage) ListDirectory(_ context.Context, prefix string) ([]string, error) {
	base := l.fullPath(prefix)
	info, err := os.Stat(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	if !info.IsDir() {
		return []string{strings.TrimSuffix(prefix, "/")}, nil
	}

	var paths []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	return paths, nil
}

func (l *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.fullPath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}
