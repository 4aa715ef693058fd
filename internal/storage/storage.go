// Package storage persists extraction artifacts (CSV datasets, batch
// reports) to a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage stores and retrieves extraction artifacts by key.
type Storage interface {
	// Upload stores an artifact and returns its storage path.
	Upload(ctx context.Context, key string, data io.Reader) (string, error)

	// Download retrieves an artifact by storage path.
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an artifact by storage path.
	Delete(ctx context.Context, storagePath string) error
}

type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds storage backend configuration.
type Config struct {
	Type         Type
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage backend from configuration.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocal(cfg.LocalPath)
	case TypeS3:
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// FromEnv creates a storage backend from environment variables. Defaults
// to local storage under ./output.
func FromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local"
	}

	switch Type(storageType) {
	case TypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./output"
		}
		return NewLocal(localPath)

	case TypeS3:
		cfg := Config{
			Type:         TypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// sanitizeKey makes a key safe to use as a relative path.
func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "\\", "/")
	parts := strings.Split(key, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return filepath.ToSlash(filepath.Join(kept...))
}

// contentType guesses a MIME type from the key's extension.
func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
