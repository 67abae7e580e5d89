package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore is a local-filesystem ObjectStore for development and tests.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) *FSStore {
	os.MkdirAll(baseDir, 0755)

	return &FSStore{baseDir: baseDir}
}

// ObjectExists checks if a file exists under the base directory.
func (s *FSStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.baseDir, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Upload writes data under the base directory, overwriting any previous
// content for the same key.
func (s *FSStore) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	filePath := filepath.Join(s.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &UploadResult{
		Key:         key,
		ETag:        fmt.Sprintf(`"%x"`, data), // Simple ETag
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}
