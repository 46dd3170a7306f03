package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/testutil"
)

var _ ObjectStore = (*testutil.MockStore)(nil)

// mockS3Client lets each test decide the result of every S3 call.
type mockS3Client struct {
	PutObjectFunc  func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucketFunc func(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

func (m *mockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) HeadBucket(
	ctx context.Context,
	params *s3.HeadBucketInput,
	optFns ...func(*s3.Options),
) (*s3.HeadBucketOutput, error) {
	if m.HeadBucketFunc != nil {
		return m.HeadBucketFunc(ctx, params, optFns...)
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store_PutObject(t *testing.T) {
	var got *s3.PutObjectInput
	var body []byte
	client := &mockS3Client{
		PutObjectFunc: func(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			var err error
			body, err = io.ReadAll(in.Body)
			require.NoError(t, err)
			return &s3.PutObjectOutput{ETag: aws.String(`"abc"`), VersionId: aws.String("v1")}, nil
		},
	}

	store := NewS3StoreWithClient(client)
	ack, err := store.PutObject(context.Background(), "images", "a.webp",
		bytes.NewReader([]byte("webp-bytes")), 10, "image/webp", map[string]string{"batch-id": "b1"})
	require.NoError(t, err)

	assert.Equal(t, "images", aws.ToString(got.Bucket))
	assert.Equal(t, "a.webp", aws.ToString(got.Key))
	assert.Equal(t, "image/webp", aws.ToString(got.ContentType))
	assert.Equal(t, int64(10), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "b1", got.Metadata["batch-id"])
	assert.Equal(t, []byte("webp-bytes"), body)

	assert.Equal(t, `"abc"`, ack.ETag)
	assert.Equal(t, "v1", ack.VersionID)
	assert.Equal(t, "a.webp", ack.Key)
}

func TestS3Store_PutObjectAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	client := &mockS3Client{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, apiErr
		},
	}

	_, err := NewS3StoreWithClient(client).PutObject(context.Background(), "images", "a.webp",
		bytes.NewReader(nil), 0, "", nil)
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "AccessDenied", opErr.Code)
	assert.Equal(t, "put", opErr.Op)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "images/a.webp")
}

func TestS3Store_CheckBucket(t *testing.T) {
	store := NewS3StoreWithClient(&mockS3Client{})
	assert.NoError(t, store.CheckBucket(context.Background(), "images"))

	store = NewS3StoreWithClient(&mockS3Client{
		HeadBucketFunc: func(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NotFound"}
		},
	})
	err := store.CheckBucket(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotFound")
}

func TestNewObjectStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		want    any
		wantErr bool
	}{
		{
			name: "s3",
			cfg:  config.StoreConfig{Driver: config.DriverS3, Region: "eu-west-1", AccessKey: "a", SecretKey: "s"},
			want: &S3Store{},
		},
		{
			name: "s3 custom endpoint",
			cfg: config.StoreConfig{Driver: config.DriverS3, Region: "eu-west-1", AccessKey: "a", SecretKey: "s",
				Endpoint: "http://localhost:4566"},
			want: &S3Store{},
		},
		{
			name: "minio",
			cfg:  config.StoreConfig{Driver: config.DriverMinio, Region: "us-east-1", AccessKey: "a", SecretKey: "s", Endpoint: "http://localhost:9000"},
			want: &MinioStore{},
		},
		{
			name: "supabase",
			cfg:  config.StoreConfig{Driver: config.DriverSupabase, SecretKey: "s", Endpoint: "https://p.supabase.co"},
			want: &SupabaseStore{},
		},
		{
			name:    "unknown",
			cfg:     config.StoreConfig{Driver: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewObjectStore(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}
