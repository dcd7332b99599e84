package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// LocalStorage implements Storage with one JSON file per key under a
// directory. Writes go through a temp file and rename, so a crash mid-write
// leaves either the old or the new value, never a torn file.
type LocalStorage struct {
	basePath string // Root directory (e.g., "~/.wicket")
}

// NewLocalStorage creates a new local filesystem storage implementation.
//
// basePath is the directory where values will be stored (created if it doesn't exist).
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey(key)
	}
	return filepath.Join(s.basePath, key+".json"), nil
}

// Get reads the file for key.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound(key)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Put atomically replaces the file for key.
func (s *LocalStorage) Put(ctx context.Context, key string, value []byte) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(fullPath, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Delete removes the file for key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
