// Package s3 implements a blobstore.BlobStore backed by an S3-compatible
// object store via the AWS SDK.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/epochfserr"
)

// Config holds configuration for the S3 blobstore.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible
	// services such as MinIO or Localstack).
	Endpoint string

	// KeyPrefix is prepended to every object name.
	KeyPrefix string

	// ForcePathStyle forces path-style addressing, required for
	// Localstack/MinIO.
	ForcePathStyle bool
}

// Store is an S3-backed implementation of blobstore.BlobStore.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// New creates an S3 blobstore with an existing client.
func New(client *s3.Client, config Config) *Store {
	return &Store{client: client, bucket: config.Bucket, keyPrefix: config.KeyPrefix}
}

// NewFromConfig builds an S3 client from config and returns a Store.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, config), nil
}

func (s *Store) fullKey(name string) string {
	return s.keyPrefix + name
}

func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return epochfserr.Wrap("blobstore.write", name, "s3", err)
	}
	return nil
}

// WriteIfMatch implements "*" with IfNoneMatch: "*" and any concrete
// etag with IfMatch, both evaluated by S3 itself. PreconditionFailed
// maps to epochfserr.ErrConcurrentWriter.
func (s *Store) WriteIfMatch(ctx context.Context, name string, data []byte, expectedEtag string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
		Body:   bytes.NewReader(data),
	}
	if expectedEtag == "*" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(expectedEtag)
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return epochfserr.New("blobstore.write_if_match", name, "s3", epochfserr.ErrConcurrentWriter)
		}
		return epochfserr.Wrap("blobstore.write_if_match", name, "s3", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, epochfserr.New("blobstore.read", name, "s3", epochfserr.ErrNotFound)
		}
		return nil, epochfserr.Wrap("blobstore.read", name, "s3", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, epochfserr.Wrap("blobstore.read", name, "s3", err)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, epochfserr.Wrap("blobstore.exists", name, "s3", err)
	}
	return true, nil
}

func (s *Store) Stat(ctx context.Context, name string) (blobstore.Stat, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return blobstore.Stat{}, epochfserr.New("blobstore.stat", name, "s3", epochfserr.ErrNotFound)
		}
		return blobstore.Stat{}, epochfserr.Wrap("blobstore.stat", name, "s3", err)
	}

	etag := ""
	if resp.ETag != nil {
		etag = strings.Trim(*resp.ETag, `"`)
	}
	size := int64(0)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return blobstore.Stat{Etag: etag, Size: size}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullKey(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, epochfserr.Wrap("blobstore.list", prefix, "s3", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.keyPrefix != "" && strings.HasPrefix(key, s.keyPrefix) {
				key = key[len(s.keyPrefix):]
			}
			names = append(names, key)
		}
	}
	return names, nil
}

// HealthCheck performs a HeadBucket call to verify connectivity and
// permissions.
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return epochfserr.Wrap("blobstore.health_check", s.bucket, "s3", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "PreconditionFailed") ||
		strings.Contains(errStr, "412")
}

var _ blobstore.BlobStore = (*Store)(nil)
var _ blobstore.HealthChecker = (*Store)(nil)
