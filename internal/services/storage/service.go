package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
)

// ObjectStore is the authenticated handle shared by every upload. Drivers
// must be safe for concurrent use.
type ObjectStore interface {
	PutObject(
		ctx context.Context,
		bucket, key string,
		body io.Reader,
		size int64,
		contentType string,
		metadata map[string]string,
	) (*models.UploadAck, error)

	// CheckBucket verifies the bucket is reachable with the configured
	// credentials.
	CheckBucket(ctx context.Context, bucket string) error
}

// NewObjectStore builds the driver selected by cfg.Driver.
func NewObjectStore(ctx context.Context, cfg config.StoreConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case config.DriverS3:
		return NewS3Store(ctx, cfg)
	case config.DriverMinio:
		return NewMinioStore(cfg)
	case config.DriverSupabase:
		return NewSupabaseStore(cfg), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
