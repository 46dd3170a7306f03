// Package batch assembles the scanner, pipeline, orchestrator and reporter
// for one run over a source tree.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
	"github.com/phambaophuc/imgbatch/internal/services/pipeline"
	"github.com/phambaophuc/imgbatch/internal/services/processor"
	"github.com/phambaophuc/imgbatch/internal/services/report"
	"github.com/phambaophuc/imgbatch/internal/services/scanner"
	"github.com/phambaophuc/imgbatch/internal/services/storage"
)

type Batch struct {
	id           string
	sourcePath   string
	timeout      time.Duration
	scanner      *scanner.Scanner
	orchestrator *pipeline.Orchestrator
	reporter     *report.Reporter
	logger       *zap.Logger
}

func New(cfg *config.Config, store storage.ObjectStore, logger *zap.Logger, sinks ...report.Sink) *Batch {
	id := uuid.New().String()
	logger = logger.With(zap.String("batch_id", id))

	converter := processor.NewImageProcessor(processor.Options{
		Quality:      cfg.Convert.Quality,
		Lossless:     cfg.Convert.Lossless,
		MaxDimension: cfg.Convert.MaxDimension,
	})
	uploader := storage.NewUploader(store, cfg.Store.Bucket, map[string]string{"batch-id": id}, logger)

	p := pipeline.NewPipeline(converter, uploader, pipeline.Options{
		KeyFunc:         pipeline.NewKeyFunc(cfg.Batch.KeyMode, cfg.Batch.KeyPrefix),
		DeleteArtifacts: cfg.Convert.DeleteArtifacts,
	}, logger)

	reporter := report.NewReporter(id, cfg.RabbitMQ.PublishTimeout, logger, sinks...)

	return &Batch{
		id:           id,
		sourcePath:   cfg.Source.Path,
		timeout:      cfg.Batch.Timeout,
		scanner:      scanner.NewScanner(cfg.Source.Extensions, logger),
		orchestrator: pipeline.NewOrchestrator(p, reporter, cfg.Batch.Workers, logger),
		reporter:     reporter,
		logger:       logger,
	}
}

func (b *Batch) ID() string {
	return b.id
}

func (b *Batch) Reporter() *report.Reporter {
	return b.reporter
}

// Run scans the source tree, processes every item found and returns the
// final summary once all units have completed. The error is non-nil when the
// run was cut short by ctx or the batch timeout; the summary is still complete
// for every item discovered.
func (b *Batch) Run(ctx context.Context) (models.BatchSummary, error) {
	b.reporter.Start(ctx)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	b.logger.Info("Starting batch", zap.String("source", b.sourcePath))

	items := b.scanner.Scan(ctx, b.sourcePath)
	b.orchestrator.Run(ctx, items)

	return b.reporter.Finish(), context.Cause(ctx)
}
