package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/models"
)

// Uploader sends converted artifacts to one bucket of an ObjectStore.
type Uploader struct {
	store    ObjectStore
	bucket   string
	metadata map[string]string
	logger   *zap.Logger
}

// NewUploader returns an Uploader that attaches metadata to every object.
// metadata is copied per call and never mutated.
func NewUploader(store ObjectStore, bucket string, metadata map[string]string, logger *zap.Logger) *Uploader {
	return &Uploader{
		store:    store,
		bucket:   bucket,
		metadata: metadata,
		logger:   logger,
	}
}

func (u *Uploader) Bucket() string {
	return u.bucket
}

// Upload rereads the artifact from disk and issues a single put. There is no
// retry.
func (u *Uploader) Upload(ctx context.Context, artifact *models.ConvertedArtifact, key string) (*models.UploadAck, error) {
	data, err := os.ReadFile(artifact.OutputPath)
	if err != nil {
		return nil, models.NewStageError(models.StageRead, artifact.OutputPath, err)
	}

	contentType := mimetype.Detect(data).String()

	metadata := make(map[string]string, len(u.metadata)+1)
	for k, v := range u.metadata {
		metadata[k] = v
	}
	metadata["source-name"] = filepath.Base(artifact.SourcePath)

	u.logger.Debug("Uploading artifact",
		zap.String("path", artifact.OutputPath),
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
		zap.String("content_type", contentType))

	ack, err := u.store.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), contentType, metadata)
	if err != nil {
		return nil, models.NewStageError(models.StageUpload, artifact.OutputPath, err)
	}
	if ack == nil {
		return nil, models.NewStageError(models.StageUpload, artifact.OutputPath,
			fmt.Errorf("store returned no acknowledgment for %s", key))
	}

	return ack, nil
}
