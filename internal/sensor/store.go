package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// entry is one record slot. Identity and location never change after
// construction; readings are swapped atomically so readers never lock.
type entry struct {
	id       string
	name     string
	location domain.Location
	readings atomic.Pointer[domain.Readings]
}

func (e *entry) snapshot() domain.SensorRecord {
	return domain.SensorRecord{
		ID:       e.id,
		Name:     e.name,
		Location: e.location,
		Readings: *e.readings.Load(),
	}
}

// Store owns the fixed set of sensor records for the process lifetime.
// List and Get are lock-free; writers are serialized.
type Store struct {
	entries []*entry
	byID    map[string]*entry

	writeMu sync.Mutex

	clock   clockwork.Clock
	latency time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used to stamp LastUpdated and to wait out the simulated latency.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLatency makes List and Get wait d before answering, mimicking a remote data source.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// WithMetrics enables lookup, mutation and per-sensor gauge metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore builds a store from records, keeping their order. It rejects empty
// or duplicate ids. Seed readings are normalized; a zero LastUpdated is
// stamped with the store clock.
func NewStore(records []domain.SensorRecord, opts ...Option) (*Store, error) {
	if err := domain.Validate(records); err != nil {
		return nil, fmt.Errorf("build sensor store: %w", err)
	}

	s := &Store{
		entries: make([]*entry, 0, len(records)),
		byID:    make(map[string]*entry, len(records)),
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, r := range records {
		e := &entry{id: r.ID, name: r.Name, location: r.Location}
		readings := r.Readings.Normalize()
		if readings.LastUpdated.IsZero() {
			readings.LastUpdated = s.clock.Now()
		}
		e.readings.Store(&readings)
		s.entries = append(s.entries, e)
		s.byID[r.ID] = e
		s.observe(e.id, readings)
	}

	s.logger.Info("sensor store ready", "sensors", len(s.entries), "latency", s.latency)
	return s, nil
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.entries) }

// IDs returns the record ids in store order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.id
	}
	return ids
}

// List returns a copy of every record in store order. It returns early with
// whatever the store holds if ctx ends during the simulated latency.
func (s *Store) List(ctx context.Context) []domain.SensorRecord {
	s.wait(ctx)

	out := make([]domain.SensorRecord, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.snapshot()
	}
	s.countLookup("list", true)
	return out
}

// Get returns a copy of the record with the given id. ok is false for unknown ids.
func (s *Store) Get(ctx context.Context, id string) (domain.SensorRecord, bool) {
	s.wait(ctx)

	e, ok := s.byID[id]
	s.countLookup("get", ok)
	if !ok {
		return domain.SensorRecord{}, false
	}
	return e.snapshot(), true
}

// ApplyReading merges patch into the record's readings, normalizes them and
// stamps LastUpdated. It returns the updated copy, or ok=false for unknown ids.
func (s *Store) ApplyReading(_ context.Context, id string, patch domain.ReadingPatch) (domain.SensorRecord, bool) {
	rec, ok := s.mutate(id, "patch", func(domain.Readings) domain.ReadingPatch { return patch })
	s.countLookup("apply", ok)
	if ok {
		s.logger.Debug("reading applied", "sensor_id", id)
	}
	return rec, ok
}

// Mutate applies the patch built by fn from the record's current readings.
// fn runs while holding the write lock, so the read-modify-write cannot race
// with any other writer. It must not call back into the store's writers.
func (s *Store) Mutate(id string, fn func(domain.Readings) domain.ReadingPatch) (domain.SensorRecord, bool) {
	return s.mutate(id, "simulation", fn)
}

func (s *Store) mutate(id, source string, fn func(domain.Readings) domain.ReadingPatch) (domain.SensorRecord, bool) {
	e, ok := s.byID[id]
	if !ok {
		return domain.SensorRecord{}, false
	}

	s.writeMu.Lock()
	cur := *e.readings.Load()
	next := fn(cur).Merge(cur, s.clock.Now())
	e.readings.Store(&next)
	s.writeMu.Unlock()

	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues(source).Inc()
	}
	s.observe(id, next)

	return domain.SensorRecord{ID: e.id, Name: e.name, Location: e.location, Readings: next}, true
}

func (s *Store) wait(ctx context.Context) {
	if s.latency <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-s.clock.After(s.latency):
	}
}

func (s *Store) countLookup(op string, hit bool) {
	if s.metrics == nil {
		return
	}
	result := "hit"
	if !hit {
		result = "miss"
	}
	s.metrics.SensorLookups.WithLabelValues(op, result).Inc()
}

func (s *Store) observe(id string, r domain.Readings) {
	if s.metrics == nil {
		return
	}
	s.metrics.SensorReading.WithLabelValues(id, "temperature").Set(r.Temperature)
	s.metrics.SensorReading.WithLabelValues(id, "humidity").Set(r.Humidity)
	s.metrics.SensorReading.WithLabelValues(id, "pressure").Set(r.Pressure)
	s.metrics.SensorReading.WithLabelValues(id, "wind_direction").Set(r.WindDirection)
	s.metrics.SensorReading.WithLabelValues(id, "wind_speed").Set(r.WindSpeed)
	s.metrics.SensorAlert.WithLabelValues(id).Set(float64(domain.ClassifyAlert(r.Temperature, r.WindSpeed).Level.Severity()))
}
