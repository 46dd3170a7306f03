// Package report turns item outcomes into log lines, running counters and a
// final batch summary.
package report

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/models"
)

const (
	DefaultPublishTimeout = 5 * time.Second

	eventBuffer = 1024
)

// Sink receives an event for every outcome. Sink failures are logged and
// never change the outcome.
type Sink interface {
	Publish(ctx context.Context, event models.UploadEvent) error
}

// Reporter counts outcomes and forwards them to sinks. Sinks are called from
// a separate goroutine started by Start, so a slow or hung sink never holds
// up Observe.
type Reporter struct {
	batchID        string
	startedAt      time.Time
	logger         *zap.Logger
	sinks          []Sink
	publishTimeout time.Duration
	now            func() time.Time

	events       chan models.UploadEvent
	dispatched   chan struct{}
	stopDispatch context.CancelFunc
	started      atomic.Bool

	mu      sync.Mutex
	closed  bool
	summary models.BatchSummary
}

// NewReporter creates a reporter for one batch. Each sink call is bounded by
// publishTimeout; zero or less selects DefaultPublishTimeout.
func NewReporter(batchID string, publishTimeout time.Duration, logger *zap.Logger, sinks ...Sink) *Reporter {
	return newReporter(batchID, publishTimeout, logger, time.Now, sinks...)
}

func newReporter(batchID string, publishTimeout time.Duration, logger *zap.Logger, now func() time.Time, sinks ...Sink) *Reporter {
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	startedAt := now()
	return &Reporter{
		batchID:        batchID,
		startedAt:      startedAt,
		logger:         logger,
		sinks:          sinks,
		publishTimeout: publishTimeout,
		now:            now,
		events:         make(chan models.UploadEvent, eventBuffer),
		dispatched:     make(chan struct{}),
		stopDispatch:   func() {},
		summary: models.BatchSummary{
			BatchID:         batchID,
			FailuresByStage: make(map[models.Stage]int),
			StartedAt:       startedAt,
		},
	}
}

// Start launches the sink dispatcher. Publishes run under contexts derived
// from ctx, so cancelling ctx abandons pending events. Without sinks Start is
// a no-op.
func (r *Reporter) Start(ctx context.Context) {
	if len(r.sinks) == 0 || !r.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.stopDispatch = cancel
	r.mu.Unlock()
	go r.dispatch(ctx)
}

func (r *Reporter) dispatch(ctx context.Context) {
	defer close(r.dispatched)

	for event := range r.events {
		for _, sink := range r.sinks {
			if ctx.Err() != nil {
				break
			}
			publishCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
			err := sink.Publish(publishCtx, event)
			cancel()
			if err != nil {
				r.logger.Warn("Failed to publish outcome event",
					zap.String("path", event.SourcePath),
					zap.Error(err))
			}
		}
	}
}

// Observe records one outcome and logs a line naming the item.
func (r *Reporter) Observe(outcome models.ItemOutcome) {
	r.mu.Lock()
	r.summary.Discovered++
	if outcome.Succeeded() {
		r.summary.Succeeded++
	} else {
		r.summary.Failed++
		r.summary.FailuresByStage[outcome.Stage]++
	}
	if len(r.sinks) > 0 && !r.closed {
		select {
		case r.events <- models.NewUploadEvent(r.batchID, outcome, r.now()):
		default:
			r.logger.Warn("Outcome event dropped, sinks are behind",
				zap.String("path", outcome.Item.Path))
		}
	}
	r.mu.Unlock()

	if outcome.Succeeded() {
		fields := []zap.Field{
			zap.String("path", outcome.Item.Path),
			zap.String("key", outcome.Key),
			zap.Duration("took", outcome.Duration),
		}
		if outcome.Artifact != nil {
			fields = append(fields, zap.Int64("size", outcome.Artifact.Size))
		}
		r.logger.Info("Uploaded", fields...)
	} else {
		r.logger.Error("Failed",
			zap.String("path", outcome.Item.Path),
			zap.String("stage", string(outcome.Stage)),
			zap.Error(outcome.Err))
	}
}

// Snapshot returns a copy of the running totals.
func (r *Reporter) Snapshot() models.BatchSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reporter) snapshotLocked() models.BatchSummary {
	s := r.summary
	s.FailuresByStage = make(map[models.Stage]int, len(r.summary.FailuresByStage))
	for stage, n := range r.summary.FailuresByStage {
		s.FailuresByStage[stage] = n
	}
	if !s.Completed {
		s.Elapsed = r.now().Sub(r.startedAt)
	}
	return s
}

// Finish freezes the summary, waits up to one publish timeout for the sinks
// to drain and logs the final line. Later calls return the same summary.
func (r *Reporter) Finish() models.BatchSummary {
	r.mu.Lock()
	if !r.summary.Completed {
		r.summary.Elapsed = r.now().Sub(r.startedAt)
		r.summary.Completed = true
	}
	s := r.snapshotLocked()
	first := !r.closed
	if first {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()

	if first {
		r.drain()
	}

	r.logger.Info("Batch completed",
		zap.String("batch_id", s.BatchID),
		zap.Int("discovered", s.Discovered),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Duration("elapsed", s.Elapsed))

	return s
}

func (r *Reporter) drain() {
	if !r.started.Load() {
		return
	}

	timer := time.NewTimer(r.publishTimeout)
	defer timer.Stop()

	select {
	case <-r.dispatched:
	case <-timer.C:
		r.mu.Lock()
		stop := r.stopDispatch
		r.mu.Unlock()
		stop()
		r.logger.Warn("Outcome sinks did not drain in time, pending events abandoned",
			zap.Int("pending", len(r.events)),
			zap.Duration("timeout", r.publishTimeout))
	}
}
