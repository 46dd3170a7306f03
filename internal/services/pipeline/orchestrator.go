package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phambaophuc/imgbatch/internal/models"
)

// Processor is one unit of work over a single item.
type Processor interface {
	Process(ctx context.Context, item models.SourceItem) models.ItemOutcome
}

// Observer receives every outcome as soon as its unit completes. Calls are
// serialized.
type Observer interface {
	Observe(outcome models.ItemOutcome)
}

type ObserverFunc func(outcome models.ItemOutcome)

func (f ObserverFunc) Observe(outcome models.ItemOutcome) { f(outcome) }

// Orchestrator runs one Processor call per item on at most workers
// goroutines. workers <= 0 means one goroutine per item with no cap.
type Orchestrator struct {
	processor Processor
	observer  Observer
	workers   int
	logger    *zap.Logger
}

func NewOrchestrator(processor Processor, observer Observer, workers int, logger *zap.Logger) *Orchestrator {
	if observer == nil {
		observer = ObserverFunc(func(models.ItemOutcome) {})
	}
	return &Orchestrator{
		processor: processor,
		observer:  observer,
		workers:   workers,
		logger:    logger,
	}
}

// Run consumes items until the channel is closed and returns once every
// started unit has finished. The result holds exactly one outcome per item
// received, in completion order. A failing unit never stops the others.
func (o *Orchestrator) Run(ctx context.Context, items <-chan models.SourceItem) []models.ItemOutcome {
	outcomes := make(chan models.ItemOutcome)
	collected := make(chan []models.ItemOutcome, 1)

	go func() {
		var results []models.ItemOutcome
		for outcome := range outcomes {
			o.observer.Observe(outcome)
			results = append(results, outcome)
		}
		collected <- results
	}()

	var g errgroup.Group
	if o.workers > 0 {
		g.SetLimit(o.workers)
	}

	started := 0
	for item := range items {
		started++
		// Blocks while all workers are busy, which backpressures the scanner.
		g.Go(func() error {
			outcomes <- o.processor.Process(ctx, item)
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)
	results := <-collected

	o.logger.Debug("All units finished",
		zap.Int("started", started),
		zap.Int("outcomes", len(results)))

	return results
}
