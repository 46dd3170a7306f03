package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
)

type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg config.StoreConfig) (*MinioStore, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, newOpError("client initialization", cfg.Bucket, "", err)
	}

	return &MinioStore{client: client}, nil
}

// parseEndpoint accepts either a bare host:port (TLS assumed) or a URL whose
// scheme decides TLS.
func parseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		if endpoint == "" {
			return "", false, fmt.Errorf("empty endpoint")
		}
		return endpoint, true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", false, fmt.Errorf("invalid endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (s *MinioStore) PutObject(
	ctx context.Context,
	bucket, key string,
	body io.Reader,
	size int64,
	contentType string,
	metadata map[string]string,
) (*models.UploadAck, error) {
	info, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, newOpError("put", bucket, key, err)
	}

	return &models.UploadAck{
		Bucket:    bucket,
		Key:       key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Location:  info.Location,
	}, nil
}

func (s *MinioStore) CheckBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return newOpError("bucket exists", bucket, "", err)
	}
	if !exists {
		return newOpError("bucket exists", bucket, "", fmt.Errorf("bucket not found"))
	}
	return nil
}
