package sensor

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SnapshotHandler receives the records produced by a tick. It must not block.
type SnapshotHandler func(records []domain.SensorRecord)

// Simulator periodically drifts every record in a Store.
type Simulator struct {
	store    *Store
	interval time.Duration
	spans    domain.DriftSpans
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
	onTick   SnapshotHandler

	tickMu sync.Mutex // serializes ticks and guards rng
	rng    *rand.Rand

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks atomic.Uint64
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorClock sets the clock driving the ticker.
func WithSimulatorClock(c clockwork.Clock) SimulatorOption {
	return func(s *Simulator) { s.clock = c }
}

// WithSeed makes the drift sequence deterministic. Seed 0 keeps the default
// time-based seed.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		if seed != 0 {
			s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
	}
}

// WithRand sets the random source directly.
func WithRand(r *rand.Rand) SimulatorOption {
	return func(s *Simulator) { s.rng = r }
}

// WithSpans overrides DefaultDriftSpans.
func WithSpans(spans domain.DriftSpans) SimulatorOption {
	return func(s *Simulator) { s.spans = spans }
}

// WithSnapshotHandler registers a callback invoked after every tick with the
// updated records.
func WithSnapshotHandler(h SnapshotHandler) SimulatorOption {
	return func(s *Simulator) { s.onTick = h }
}

// WithSimulatorMetrics enables tick metrics.
func WithSimulatorMetrics(m *observability.Metrics) SimulatorOption {
	return func(s *Simulator) { s.metrics = m }
}

// WithSimulatorLogger sets the simulator logger.
func WithSimulatorLogger(l *slog.Logger) SimulatorOption {
	return func(s *Simulator) { s.logger = l }
}

// NewSimulator creates a stopped simulator that ticks every interval.
// A non-positive interval falls back to 10s.
func NewSimulator(store *Store, interval time.Duration, opts ...SimulatorOption) *Simulator {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Simulator{
		store:    store,
		interval: interval,
		spans:    domain.DefaultDriftSpans,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		now := uint64(s.clock.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(now, now>>1|1))
	}
	return s
}

// Start launches the tick loop. Calling Start while running is a no-op.
// The loop ends when ctx is cancelled or Stop is called.
func (s *Simulator) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.cancel != nil {
		s.logger.Debug("simulation already running")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	ticker := s.clock.NewTicker(s.interval)
	if s.metrics != nil {
		s.metrics.SimulationRunning.Set(1)
	}
	s.logger.Info("simulation started", "interval", s.interval, "sensors", s.store.Len())

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.release(done)
				return
			case <-ticker.Chan():
				s.Tick(ctx)
			}
		}
	}()
}

// Stop ends the tick loop and waits for an in-flight tick to finish.
// Stopping a stopped simulator is a no-op. Start may be called again afterwards.
func (s *Simulator) Stop() {
	s.lifeMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if s.metrics != nil {
		s.metrics.SimulationRunning.Set(0)
	}
	s.logger.Info("simulation stopped", "ticks", s.ticks.Load())
}

// release clears the lifecycle state when the loop ends on its own because
// the parent context was cancelled. A Stop or a newer Start owns the state
// otherwise and is left alone.
func (s *Simulator) release(done chan struct{}) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.done != done {
		return
	}
	s.cancel()
	s.cancel, s.done = nil, nil
	if s.metrics != nil {
		s.metrics.SimulationRunning.Set(0)
	}
	s.logger.Info("simulation stopped", "reason", "context cancelled", "ticks", s.ticks.Load())
}

// Running reports whether the tick loop is active.
func (s *Simulator) Running() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.cancel != nil
}

// Ticks returns the number of completed ticks.
func (s *Simulator) Ticks() uint64 { return s.ticks.Load() }

// CheckReadiness returns nil while the simulator is running.
func (s *Simulator) CheckReadiness(_ context.Context) error {
	if !s.Running() {
		return errors.New("simulation is not running")
	}
	return nil
}

// Tick drifts every record once, in store order, and returns the updated
// copies. Ticks never overlap. The snapshot handler sees the same records.
func (s *Simulator) Tick(_ context.Context) []domain.SensorRecord {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := s.clock.Now()
	updated := make([]domain.SensorRecord, 0, s.store.Len())
	for _, id := range s.store.IDs() {
		rec, ok := s.store.Mutate(id, func(r domain.Readings) domain.ReadingPatch {
			return s.spans.Drift(r, s.rng.Float64)
		})
		if ok {
			updated = append(updated, rec)
		}
	}

	n := s.ticks.Add(1)
	if s.metrics != nil {
		s.metrics.SimulationTicks.Inc()
		s.metrics.SimulationTickDuration.Observe(s.clock.Since(start).Seconds())
	}
	s.logger.Debug("simulation tick", "tick", n, "sensors", len(updated))

	if s.onTick != nil {
		s.onTick(updated)
	}
	return updated
}
