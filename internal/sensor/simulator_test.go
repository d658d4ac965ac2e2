package sensor

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, opts ...SimulatorOption) (*Simulator, *Store, *clockwork.FakeClock) {
	t.Helper()
	store, clock := newTestStore(t)
	opts = append([]SimulatorOption{WithSimulatorClock(clock), WithSeed(7)}, opts...)
	return NewSimulator(store, 10*time.Second, opts...), store, clock
}

func TestSimulator_TickKeepsInvariants(t *testing.T) {
	sim, store, clock := newTestSimulator(t)
	ctx := context.Background()

	prev := map[string]time.Time{}
	for _, r := range store.List(ctx) {
		prev[r.ID] = r.Readings.LastUpdated
	}

	for range 500 {
		clock.Advance(time.Millisecond)
		for _, r := range sim.Tick(ctx) {
			rd := r.Readings
			assert.GreaterOrEqual(t, rd.WindDirection, 0.0)
			assert.Less(t, rd.WindDirection, 360.0)
			assert.GreaterOrEqual(t, rd.Temperature, domain.MinTemperature)
			assert.LessOrEqual(t, rd.Temperature, domain.MaxTemperature)
			assert.GreaterOrEqual(t, rd.Humidity, domain.MinHumidity)
			assert.LessOrEqual(t, rd.Humidity, domain.MaxHumidity)
			assert.GreaterOrEqual(t, rd.Pressure, domain.MinPressure)
			assert.LessOrEqual(t, rd.Pressure, domain.MaxPressure)
			assert.GreaterOrEqual(t, rd.WindSpeed, domain.MinWindSpeed)
			assert.LessOrEqual(t, rd.WindSpeed, domain.MaxWindSpeed)
			assert.True(t, rd.LastUpdated.After(prev[r.ID]), r.ID)
			prev[r.ID] = rd.LastUpdated
		}
	}
	assert.Equal(t, uint64(500), sim.Ticks())
}

func TestSimulator_TickDriftIsBounded(t *testing.T) {
	sim, store, _ := newTestSimulator(t)
	ctx := context.Background()

	before := store.List(ctx)
	after := sim.Tick(ctx)
	require.Len(t, after, len(before))

	spans := domain.DefaultDriftSpans
	for i := range before {
		b, a := before[i].Readings, after[i].Readings
		assert.LessOrEqual(t, abs(a.Temperature-b.Temperature), spans.Temperature/2, before[i].ID)
		assert.LessOrEqual(t, abs(a.Humidity-b.Humidity), spans.Humidity/2, before[i].ID)
		assert.LessOrEqual(t, abs(a.Pressure-b.Pressure), spans.Pressure/2, before[i].ID)
		assert.LessOrEqual(t, abs(a.WindSpeed-b.WindSpeed), spans.WindSpeed/2, before[i].ID)
		assert.LessOrEqual(t, angularDistance(a.WindDirection, b.WindDirection), spans.WindDirection/2, before[i].ID)
		assert.Equal(t, before[i].Location, after[i].Location)
		assert.Equal(t, before[i].Name, after[i].Name)
	}
}

func TestSimulator_TickWrapsDirectionAtNorth(t *testing.T) {
	clock := clockwork.NewFakeClockAt(seedTime)
	store, err := NewStore([]domain.SensorRecord{
		{ID: "n", Readings: domain.Readings{Pressure: 1000, WindDirection: 359.9}},
	}, WithClock(clock))
	require.NoError(t, err)

	// Always draw the top of the range: +span/2 on every field.
	var one oneSource
	sim := NewSimulator(store, time.Second, WithSimulatorClock(clock), WithRand(rand.New(one)))

	got := sim.Tick(context.Background())
	require.Len(t, got, 1)
	assert.InDelta(t, 4.9, got[0].Readings.WindDirection, 1e-3)
}

func TestSimulator_SameSeedSameSequence(t *testing.T) {
	run := func() []domain.SensorRecord {
		sim, _, _ := newTestSimulator(t, WithSeed(42))
		var out []domain.SensorRecord
		for range 3 {
			out = sim.Tick(context.Background())
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Fatalf("seeded runs diverged (-first +second):\n%s", diff)
	}
}

func TestSimulator_ListStableBetweenTicks(t *testing.T) {
	sim, store, _ := newTestSimulator(t)
	ctx := context.Background()

	sim.Tick(ctx)
	a := store.List(ctx)
	b := store.List(ctx)
	assert.Equal(t, a, b)

	sim.Tick(ctx)
	c := store.List(ctx)
	assert.NotEqual(t, a, c)
}

func TestSimulator_SnapshotHandler(t *testing.T) {
	var got [][]domain.SensorRecord
	sim, _, _ := newTestSimulator(t, WithSnapshotHandler(func(records []domain.SensorRecord) {
		got = append(got, records)
	}))

	ret := sim.Tick(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, ret, got[0])
	assert.Len(t, got[0], 8)
}

func TestSimulator_StartTicksOnInterval(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sim, store, clock := newTestSimulator(t, WithSimulatorMetrics(metrics))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	before := store.List(ctx)
	sim.Start(ctx)
	defer sim.Stop()
	assert.True(t, sim.Running())
	require.NoError(t, sim.CheckReadiness(ctx))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SimulationRunning), 0)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, sim.Ticks())

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return sim.Ticks() == 1 }, 2*time.Second, 5*time.Millisecond)

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return sim.Ticks() == 2 }, 2*time.Second, 5*time.Millisecond)

	assert.NotEqual(t, before, store.List(ctx))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SimulationTicks), 0)
}

func TestSimulator_StartIsIdempotent(t *testing.T) {
	sim, _, clock := newTestSimulator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sim.Start(ctx)
	sim.Start(ctx)
	sim.Start(ctx)
	defer sim.Stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return sim.Ticks() == 1 }, 2*time.Second, 5*time.Millisecond)

	// A second loop would have produced a second tick from the same advance.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(1), sim.Ticks())
}

func TestSimulator_StopHaltsTicks(t *testing.T) {
	sim, _, clock := newTestSimulator(t)
	ctx := context.Background()

	sim.Stop() // stopping before start is a no-op

	sim.Start(ctx)
	sim.Stop()
	sim.Stop()
	assert.False(t, sim.Running())
	require.Error(t, sim.CheckReadiness(ctx))

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sim.Ticks())

	// Restart after stop.
	sim.Start(ctx)
	defer sim.Stop()
	bctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(bctx, 1))
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return sim.Ticks() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSimulator_ContextCancelStopsLoop(t *testing.T) {
	sim, _, clock := newTestSimulator(t)

	ctx, cancel := context.WithCancel(context.Background())
	sim.Start(ctx)
	cancel()
	sim.Stop()

	clock.Advance(time.Minute)
	assert.Zero(t, sim.Ticks())
}

func TestSimulator_RestartAfterContextCancel(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sim, _, clock := newTestSimulator(t, WithSimulatorMetrics(metrics))

	parent, cancelParent := context.WithCancel(context.Background())
	sim.Start(parent)
	cancelParent()

	require.Eventually(t, func() bool { return !sim.Running() }, 2*time.Second, 5*time.Millisecond)
	require.Error(t, sim.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SimulationRunning), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sim.Start(ctx)
	defer sim.Stop()
	assert.True(t, sim.Running())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SimulationRunning), 0)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return sim.Ticks() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSimulator_TickRacesWithPatches(t *testing.T) {
	sim, store, _ := newTestSimulator(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sim.Tick(ctx)
		}()
		go func() {
			defer wg.Done()
			store.ApplyReading(ctx, "sensor-05", domain.ReadingPatch{Temperature: domain.Float(999)})
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(20), sim.Ticks())
	rec, _ := store.Get(ctx, "sensor-05")
	assert.LessOrEqual(t, rec.Readings.Temperature, domain.MaxTemperature)
}

// oneSource always yields the largest uint64, so Float64 returns just under 1.
type oneSource struct{}

func (oneSource) Uint64() uint64 { return ^uint64(0) }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func angularDistance(a, b float64) float64 {
	d := abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
