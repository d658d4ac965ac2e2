package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
)

// Sink is a named BatchLoader. The name labels metrics and errors.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// MultiLoader writes each batch to every sink concurrently.
// It implements BatchLoader.
type MultiLoader struct {
	sinks   []Sink
	metrics *observability.Metrics
}

// NewMultiLoader fans batches out to sinks.
func NewMultiLoader(metrics *observability.Metrics, sinks ...Sink) *MultiLoader {
	return &MultiLoader{sinks: sinks, metrics: metrics}
}

// Names returns the configured sink names.
func (m *MultiLoader) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

// LoadBatch writes events to all sinks and waits for each of them. Failures
// are joined; a failing sink does not prevent the others from receiving the batch.
func (m *MultiLoader) LoadBatch(ctx context.Context, events []domain.TelemetryEvent) error {
	if len(events) == 0 {
		return nil
	}

	errs := make([]error, len(m.sinks))
	var wg sync.WaitGroup
	for i, s := range m.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Loader.LoadBatch(ctx, events); err != nil {
				m.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
				errs[i] = fmt.Errorf("sink %s: %w", s.Name, err)
				return
			}
			m.metrics.EventsPublished.WithLabelValues(s.Name).Add(float64(len(events)))
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
