//go:build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/blobstore/blobstoretest"
)

// localstackHelper manages the Localstack container for S3 integration
// tests, reused across conformance subtests so only one container pays
// the startup cost.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *awss3.Client
}

// newLocalstackHelper starts a Localstack container, or connects to one
// already running if LOCALSTACK_ENDPOINT is set.
func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		helper := &localstackHelper{endpoint: endpoint}
		helper.createClient(t)
		return helper
	}

	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start localstack container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)
	return helper
}

func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("failed to load AWS config: %v", err)
	}

	lh.client = awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = &lh.endpoint
		o.UsePathStyle = true
	})
}

func (lh *localstackHelper) createBucket(t *testing.T, bucketName string) {
	t.Helper()
	ctx := context.Background()

	_, err := lh.client.CreateBucket(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("failed to create test bucket: %v", err)
	}
}

func (lh *localstackHelper) cleanup() {
	if lh.container != nil {
		ctx := context.Background()
		_ = lh.container.Terminate(ctx)
	}
}

// TestStoreConformsToBlobStoreContract runs the shared blobstoretest
// conformance suite against a real S3-compatible backend, matching the
// coverage memory and fsblob already get from the same suite.
func TestStoreConformsToBlobStoreContract(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	blobstoretest.Run(t, func(t *testing.T) blobstore.BlobStore {
		t.Helper()
		bucketName := fmt.Sprintf("test-bucket-%d", time.Now().UnixNano())
		helper.createBucket(t, bucketName)
		return New(helper.client, Config{Bucket: bucketName, KeyPrefix: "data/"})
	})
}
