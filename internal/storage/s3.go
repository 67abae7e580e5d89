package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client talks to one bucket of an S3-compatible backend. Instances are
// built by the factory from a single credential and discarded after one
// polling cycle.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client constructs a client for the given endpoint and bucket using
// exactly the supplied credential.
func NewS3Client(ctx context.Context, cred Credential, endpoint, region, bucket string) (*S3Client, error) {
	provider := credentials.NewStaticCredentialsProvider(cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken)

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(provider),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: endpoint,
				}, nil
			})),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &S3Client{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// ObjectExists checks whether an object is already present under key.
func (c *S3Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		// A 404 means the object does not exist; anything else is a real
		// failure.
		if strings.Contains(err.Error(), "404") ||
			strings.Contains(err.Error(), "NotFound") ||
			strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Upload stores data under key. The key is stable per pending row, so
// repeating an upload after a crash overwrites the same object.
func (c *S3Client) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	result, err := c.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}

	return &UploadResult{
		Key:         key,
		ETag:        aws.ToString(result.ETag),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// IsServiceUnavailable reports whether err looks like a service-level S3
// outage (throttling, timeout, 503) rather than a per-object problem. The
// orchestrator counts these toward its meltdown threshold.
func IsServiceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "RequestTimeout") ||
		strings.Contains(msg, "ServiceUnavailable") ||
		strings.Contains(msg, "SlowDown")
}
