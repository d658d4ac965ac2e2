package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
)

// SnapshotQueue is a bounded hand-off between the simulator and the pipeline.
// Enqueue never blocks; it implements BatchExtractor.
type SnapshotQueue struct {
	ch      chan domain.SensorRecord
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewSnapshotQueue creates a queue holding at most size snapshots.
func NewSnapshotQueue(size int, logger *slog.Logger, metrics *observability.Metrics) *SnapshotQueue {
	if size < 1 {
		size = 1
	}
	return &SnapshotQueue{
		ch:      make(chan domain.SensorRecord, size),
		metrics: metrics,
		logger:  logger,
	}
}

// Enqueue offers records to the queue and returns how many were accepted.
// Records that do not fit are dropped and counted.
func (q *SnapshotQueue) Enqueue(records []domain.SensorRecord) int {
	accepted := 0
	for _, r := range records {
		select {
		case q.ch <- r:
			accepted++
		default:
		}
	}

	q.metrics.SnapshotsEnqueued.Add(float64(accepted))
	if dropped := len(records) - accepted; dropped > 0 {
		q.metrics.SnapshotsDropped.Add(float64(dropped))
		q.logger.Warn("telemetry queue full, dropping snapshots", "dropped", dropped, "capacity", cap(q.ch))
	}
	return accepted
}

// Len returns the number of queued snapshots.
func (q *SnapshotQueue) Len() int { return len(q.ch) }

// ExtractBatch waits for the first snapshot, then drains whatever else is
// already queued, up to batchSize.
func (q *SnapshotQueue) ExtractBatch(ctx context.Context, batchSize int) ([]domain.SensorRecord, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	var first domain.SensorRecord
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case first = <-q.ch:
	}

	batch := make([]domain.SensorRecord, 1, batchSize)
	batch[0] = first
	for len(batch) < batchSize {
		select {
		case r := <-q.ch:
			batch = append(batch, r)
		default:
			return batch, nil
		}
	}
	return batch, nil
}
