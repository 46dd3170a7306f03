package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
)

// ErrRejected marks a non-2xx answer from the storage API. The client often
// reports those with an empty message when the body is not its JSON error shape.
var ErrRejected = errors.New("storage API rejected the request")

type SupabaseStore struct {
	sbClient *storage_go.Client
}

// NewSupabaseStore talks to the storage API of the project at cfg.Endpoint
// using the service key in cfg.SecretKey.
func NewSupabaseStore(cfg config.StoreConfig) *SupabaseStore {
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/") + "/storage/v1"
	return &SupabaseStore{
		sbClient: storage_go.NewClient(baseURL, cfg.SecretKey, nil),
	}
}

// PutObject upserts, so an existing key is silently replaced. The storage
// client has no context support; ctx is only checked before the call.
func (s *SupabaseStore) PutObject(
	ctx context.Context,
	bucket, key string,
	body io.Reader,
	size int64,
	contentType string,
	metadata map[string]string,
) (*models.UploadAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, newOpError("put", bucket, key, err)
	}

	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	if _, err := s.sbClient.UploadFile(bucket, key, body, opts); err != nil {
		return nil, newOpError("put", bucket, key, apiError(err))
	}

	publicURL := s.sbClient.GetPublicUrl(bucket, key)
	return &models.UploadAck{
		Bucket:   bucket,
		Key:      key,
		Location: publicURL.SignedURL,
	}, nil
}

func (s *SupabaseStore) CheckBucket(ctx context.Context, bucket string) error {
	if _, err := s.sbClient.ListFiles(bucket, "", storage_go.FileSearchOptions{}); err != nil {
		return newOpError("list files", bucket, "", apiError(err))
	}
	return nil
}

// apiError tags errors that came back from the storage API as ErrRejected.
// Transport failures pass through unchanged.
func apiError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}
	if strings.TrimSpace(err.Error()) == "" {
		return fmt.Errorf("%w%w", ErrRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
