// Package fixture produces reproducible recordings of simulated ticks and
// checks them against the data-model invariants.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/pipeline"
	"github.com/couchcryptid/sensor-telemetry-service/internal/sensor"
	"github.com/jonboulle/clockwork"
)

// DefaultStart is the fake-clock origin used by genmock.
var DefaultStart = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

// Fixture is a recording of the seed state followed by simulated ticks.
type Fixture struct {
	Seed     uint64     `json:"seed"`
	Interval Duration   `json:"interval"`
	Start    time.Time  `json:"start"`
	Spans    DriftSpans `json:"spans"`
	Ticks    []Tick     `json:"ticks"`
}

// Tick is the telemetry for every sensor after one simulation step. Tick 0
// is the unmodified seed data.
type Tick struct {
	Index  int                     `json:"index"`
	At     time.Time               `json:"at"`
	Events []domain.TelemetryEvent `json:"events"`
}

// DriftSpans mirrors domain.DriftSpans with JSON names.
type DriftSpans struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindDirection float64 `json:"windDirection"`
	WindSpeed     float64 `json:"windSpeed"`
}

func (s DriftSpans) domain() domain.DriftSpans {
	return domain.DriftSpans(s)
}

// Duration marshals as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Generate runs the simulator for ticks steps on a fake clock starting at
// start. The same arguments always yield the same fixture.
func Generate(seed uint64, ticks int, interval time.Duration, start time.Time) (Fixture, error) {
	if seed == 0 {
		return Fixture{}, fmt.Errorf("seed must be non-zero for a reproducible fixture")
	}
	if ticks < 0 {
		return Fixture{}, fmt.Errorf("ticks must be >= 0, got %d", ticks)
	}
	if interval <= 0 {
		return Fixture{}, fmt.Errorf("interval must be positive, got %s", interval)
	}

	clock := clockwork.NewFakeClockAt(start)
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	store, err := sensor.NewStore(domain.SeedSensors(start), sensor.WithClock(clock))
	if err != nil {
		return Fixture{}, err
	}
	sim := sensor.NewSimulator(store, interval,
		sensor.WithSimulatorClock(clock),
		sensor.WithSeed(seed),
		sensor.WithSpans(domain.DefaultDriftSpans),
	)
	tr := pipeline.NewTransformer()
	ctx := context.Background()

	f := Fixture{
		Seed:     seed,
		Interval: Duration(interval),
		Start:    start,
		Spans:    DriftSpans(domain.DefaultDriftSpans),
		Ticks:    make([]Tick, 0, ticks+1),
	}

	record := func(i int, records []domain.SensorRecord) error {
		events := make([]domain.TelemetryEvent, 0, len(records))
		for _, rec := range records {
			ev, err := tr.Transform(ctx, rec)
			if err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
			events = append(events, ev)
		}
		f.Ticks = append(f.Ticks, Tick{Index: i, At: clock.Now().UTC(), Events: events})
		return nil
	}

	if err := record(0, store.List(ctx)); err != nil {
		return Fixture{}, err
	}
	for i := 1; i <= ticks; i++ {
		clock.Advance(interval)
		if err := record(i, sim.Tick(ctx)); err != nil {
			return Fixture{}, err
		}
	}
	return f, nil
}

// Write stores f as indented JSON, creating parent directories.
func Write(path string, f Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Load reads a fixture written by Write.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return f, nil
}
