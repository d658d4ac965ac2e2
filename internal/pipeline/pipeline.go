package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
)

// BatchExtractor reads up to batchSize sensor snapshots from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.SensorRecord, error)
}

// Transformer converts a sensor snapshot into a telemetry event.
type Transformer interface {
	Transform(ctx context.Context, rec domain.SensorRecord) (domain.TelemetryEvent, error)
}

// BatchLoader writes multiple telemetry events to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.TelemetryEvent) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has delivered at least one batch,
// or an error describing why it is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not delivered any telemetry yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	start := time.Now()
	p.metrics.SnapshotsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	loaded, ok := p.transformAndLoad(ctx, batch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad transforms each snapshot and loads the successes. A failed
// load is logged and the batch dropped after the backoff; the next tick
// carries fresher readings. Returns the number of loaded events and false if
// the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.SensorRecord, backoff *time.Duration) (int, bool) {
	events := make([]domain.TelemetryEvent, 0, len(batch))

	for _, rec := range batch {
		ev, err := p.transformer.Transform(ctx, rec)
		if err != nil {
			p.logger.Warn("transform failed, skipping snapshot",
				"error", err,
				"sensor_id", rec.ID,
			)
			p.metrics.TransformErrors.Inc()
			continue
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, events); err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(events))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	*backoff = initialBackoff
	return len(events), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
