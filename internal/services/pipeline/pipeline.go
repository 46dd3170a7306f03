// Package pipeline runs the convert-then-upload unit of work for each source
// item and fans those units out over a bounded pool of workers.
package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
	"github.com/phambaophuc/imgbatch/pkg/utils"
)

type Converter interface {
	Convert(ctx context.Context, item models.SourceItem) (*models.ConvertedArtifact, error)
}

type Uploader interface {
	Upload(ctx context.Context, artifact *models.ConvertedArtifact, key string) (*models.UploadAck, error)
}

// KeyFunc derives the object key for an artifact produced from item.
type KeyFunc func(item models.SourceItem, artifact *models.ConvertedArtifact) (string, error)

// NewKeyFunc returns the key derivation for mode (flat or relative).
func NewKeyFunc(mode, prefix string) KeyFunc {
	if mode == config.KeyModeRelative {
		return func(item models.SourceItem, artifact *models.ConvertedArtifact) (string, error) {
			return utils.RelativeKey(prefix, item.Root, artifact.OutputPath)
		}
	}
	return func(_ models.SourceItem, artifact *models.ConvertedArtifact) (string, error) {
		return utils.FlatKey(prefix, artifact.OutputPath), nil
	}
}

type Options struct {
	KeyFunc         KeyFunc
	DeleteArtifacts bool
}

// Pipeline composes a Converter and an Uploader. It holds no per-item state,
// so one Pipeline serves every concurrent unit.
type Pipeline struct {
	converter Converter
	uploader  Uploader
	opts      Options
	logger    *zap.Logger
}

func NewPipeline(converter Converter, uploader Uploader, opts Options, logger *zap.Logger) *Pipeline {
	if opts.KeyFunc == nil {
		opts.KeyFunc = NewKeyFunc(config.KeyModeFlat, "")
	}
	return &Pipeline{
		converter: converter,
		uploader:  uploader,
		opts:      opts,
		logger:    logger,
	}
}

// Process converts and uploads item and always returns exactly one outcome.
// Cancellation is honoured before conversion and between conversion and upload.
func (p *Pipeline) Process(ctx context.Context, item models.SourceItem) models.ItemOutcome {
	start := time.Now()
	outcome := p.process(ctx, item)
	outcome.Duration = time.Since(start)
	return outcome
}

func (p *Pipeline) process(ctx context.Context, item models.SourceItem) models.ItemOutcome {
	if err := ctx.Err(); err != nil {
		return models.Failure(item, models.NewStageError(models.StageCancelled, item.Path, err))
	}

	artifact, err := p.converter.Convert(ctx, item)
	if err != nil {
		return models.Failure(item, err)
	}

	key, err := p.opts.KeyFunc(item, artifact)
	if err != nil {
		outcome := models.Failure(item, models.NewStageError(models.StageUpload, artifact.OutputPath, err))
		outcome.Artifact = artifact
		return outcome
	}

	if err := ctx.Err(); err != nil {
		outcome := models.Failure(item, models.NewStageError(models.StageCancelled, item.Path, err))
		outcome.Artifact = artifact
		outcome.Key = key
		return outcome
	}

	ack, err := p.uploader.Upload(ctx, artifact, key)
	if err != nil {
		outcome := models.Failure(item, err)
		outcome.Artifact = artifact
		outcome.Key = key
		return outcome
	}

	if p.opts.DeleteArtifacts {
		if err := os.Remove(artifact.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("Failed to remove artifact",
				zap.String("path", artifact.OutputPath),
				zap.Error(err))
		}
	}

	return models.Success(item, key, artifact, ack)
}
