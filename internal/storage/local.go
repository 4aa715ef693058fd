package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores artifacts under a base directory on the local filesystem.
type Local struct {
	basePath string
}

func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

func (s *Local) Upload(ctx context.Context, key string, data io.Reader) (string, error) {
	storagePath := sanitizeKey(key)
	fullPath := filepath.Join(s.basePath, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	return storagePath, nil
}

func (s *Local) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, sanitizeKey(storagePath))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", storagePath)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

func (s *Local) Delete(ctx context.Context, storagePath string) error {
	fullPath := filepath.Join(s.basePath, sanitizeKey(storagePath))

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
