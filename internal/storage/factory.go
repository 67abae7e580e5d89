package storage

import (
	"context"
	"fmt"
)

// S3ClientFactory builds S3 clients on demand. It holds no client state:
// every Acquire obtains a fresh credential and constructs a new client, so
// no client is ever used past the validity window assumed at its creation.
type S3ClientFactory struct {
	creds    CredentialProvider
	endpoint string
	region   string
	bucket   string
}

func NewS3ClientFactory(creds CredentialProvider, endpoint, region, bucket string) *S3ClientFactory {
	return &S3ClientFactory{
		creds:    creds,
		endpoint: endpoint,
		region:   region,
		bucket:   bucket,
	}
}

// Acquire obtains a new credential and returns a client built from it.
func (f *S3ClientFactory) Acquire(ctx context.Context) (ObjectStore, error) {
	cred, err := f.creds.Obtain(ctx)
	if err != nil {
		return nil, err
	}
	client, err := NewS3Client(ctx, cred, f.endpoint, f.region, f.bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return client, nil
}
