package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quarrydata/quarry/internal/domain"
)

// LocalStorage keeps objects on the local filesystem, one file per key.
// Used for development and single-node deployments.
type LocalStorage struct {
	root string
}

func NewLocal(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(key string) string {
	// Keys are internally generated; flatten anything path-like anyway.
	clean := strings.ReplaceAll(key, "..", "")
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	file, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, domain.NotFoundError{Resource: "object"}
		}
		return nil, 0, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}

	return file, stat.Size(), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
