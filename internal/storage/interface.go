package storage

import (
	"context"
)

// ObjectStore is the subset of object-storage operations the uploader needs.
// Implemented by S3Client and by the filesystem-backed FSStore used in
// development and tests.
type ObjectStore interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error)
}

// ClientFactory issues object-store clients. Every Acquire call must build
// its client from a freshly obtained credential; callers discard the client
// after one polling cycle and acquire again.
type ClientFactory interface {
	Acquire(ctx context.Context) (ObjectStore, error)
}

// UploadResult describes a completed upload.
type UploadResult struct {
	Key         string
	ETag        string
	Size        int64
	ContentType string
}
