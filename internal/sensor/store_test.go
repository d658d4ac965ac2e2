package sensor

import (
	"context"
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

var seedTime = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(seedTime)
	opts = append([]Option{WithClock(clock)}, opts...)
	s, err := NewStore(domain.SeedSensors(seedTime), opts...)
	require.NoError(t, err)
	return s, clock
}

func TestNewStore_RejectsInvalidRecords(t *testing.T) {
	_, err := NewStore([]domain.SensorRecord{{ID: "a"}, {ID: "a"}})
	require.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, err = NewStore([]domain.SensorRecord{{Name: "no id"}})
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestNewStore_NormalizesAndStampsSeed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(seedTime)
	s, err := NewStore([]domain.SensorRecord{
		{ID: "hot", Readings: domain.Readings{Temperature: 80, Pressure: 1000, WindDirection: 370}},
	}, WithClock(clock))
	require.NoError(t, err)

	rec, ok := s.Get(context.Background(), "hot")
	require.True(t, ok)
	assert.Equal(t, 50.0, rec.Readings.Temperature)
	assert.InDelta(t, 10, rec.Readings.WindDirection, 1e-9)
	assert.Equal(t, seedTime, rec.Readings.LastUpdated)
}

func TestStore_ListKeepsSeedOrder(t *testing.T) {
	s, _ := newTestStore(t)

	got := s.List(context.Background())
	require.Len(t, got, 8)
	for i, r := range got {
		assert.Equal(t, domain.SeedSensors(seedTime)[i].ID, r.ID)
	}
	assert.Equal(t, s.IDs()[0], got[0].ID)
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := s.List(ctx)
	first[0].Readings.Temperature = -99
	first[0].Name = "mutated"

	rec, ok := s.Get(ctx, first[0].ID)
	require.True(t, ok)
	assert.Equal(t, 35.5, rec.Readings.Temperature)
	assert.Equal(t, "Leopoldina Norte", rec.Name)
}

func TestStore_ConsecutiveListsAreEqual(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := s.List(ctx)
	b := s.List(ctx)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("List changed without a mutation (-first +second):\n%s", diff)
	}
}

func TestStore_GetValidIDs(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range s.IDs() {
		rec, ok := s.Get(context.Background(), id)
		require.True(t, ok, id)
		assert.Equal(t, id, rec.ID)
	}
}

func TestStore_UnknownIDIsAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "sensor-99", "SENSOR-01", " sensor-01", "sensor-1"} {
		assert.NotPanics(t, func() {
			_, ok := s.Get(ctx, id)
			assert.False(t, ok, "Get(%q)", id)

			_, ok = s.ApplyReading(ctx, id, domain.ReadingPatch{Temperature: domain.Float(20)})
			assert.False(t, ok, "ApplyReading(%q)", id)
		})
	}
}

func TestStore_ApplyReadingClampsTemperature(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	updated, ok := s.ApplyReading(ctx, "sensor-03", domain.ReadingPatch{Temperature: domain.Float(999)})
	require.True(t, ok)
	assert.Equal(t, 50.0, updated.Readings.Temperature)

	stored, ok := s.Get(ctx, "sensor-03")
	require.True(t, ok)
	assert.Equal(t, 50.0, stored.Readings.Temperature)
	assert.Equal(t, 70.0, stored.Readings.Humidity)
}

func TestStore_ApplyReadingWrapsDirection(t *testing.T) {
	s, _ := newTestStore(t)

	rec, ok := s.ApplyReading(context.Background(), "sensor-01", domain.ReadingPatch{WindDirection: domain.Float(-90)})
	require.True(t, ok)
	assert.InDelta(t, 270, rec.Readings.WindDirection, 1e-9)
}

func TestStore_ApplyReadingAdvancesLastUpdated(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	before, _ := s.Get(ctx, "sensor-02")

	// Clock frozen: the stamp must still move forward.
	a, ok := s.ApplyReading(ctx, "sensor-02", domain.ReadingPatch{Humidity: domain.Float(40)})
	require.True(t, ok)
	assert.True(t, a.Readings.LastUpdated.After(before.Readings.LastUpdated))

	clock.Advance(time.Second)
	b, ok := s.ApplyReading(ctx, "sensor-02", domain.ReadingPatch{})
	require.True(t, ok)
	assert.True(t, b.Readings.LastUpdated.After(a.Readings.LastUpdated))
	assert.Equal(t, seedTime.Add(time.Second), b.Readings.LastUpdated)
}

func TestStore_ConcurrentPatchesAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mutate("sensor-04", func(r domain.Readings) domain.ReadingPatch {
				return domain.ReadingPatch{Humidity: domain.Float(r.Humidity + 0.5)}
			})
		}()
		go func() { _ = s.List(ctx) }()
	}
	wg.Wait()

	rec, _ := s.Get(ctx, "sensor-04")
	assert.InDelta(t, 72+writers*0.5, rec.Readings.Humidity, 1e-9)
}

func TestStore_Latency(t *testing.T) {
	s, clock := newTestStore(t, WithLatency(300*time.Millisecond))

	done := make(chan []domain.SensorRecord, 1)
	go func() { done <- s.List(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	select {
	case <-done:
		t.Fatal("List returned before the latency elapsed")
	default:
	}

	clock.Advance(300 * time.Millisecond)
	select {
	case got := <-done:
		assert.Len(t, got, 8)
	case <-time.After(time.Second):
		t.Fatal("List did not return after the latency elapsed")
	}
}

func TestStore_LatencyHonoursCancellation(t *testing.T) {
	s, _ := newTestStore(t, WithLatency(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, ok := s.Get(ctx, "sensor-01")
	assert.True(t, ok)
	assert.Equal(t, "sensor-01", rec.ID)
}

func TestStore_Metrics(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	s, _ := newTestStore(t, WithMetrics(metrics))
	ctx := context.Background()

	s.Get(ctx, "sensor-01")
	s.Get(ctx, "nope")
	s.ApplyReading(ctx, "sensor-07", domain.ReadingPatch{Temperature: domain.Float(20), WindSpeed: domain.Float(90)})

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SensorLookups.WithLabelValues("get", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SensorLookups.WithLabelValues("get", "miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Mutations.WithLabelValues("patch")), 0)
	assert.InDelta(t, 20, testutil.ToFloat64(metrics.SensorReading.WithLabelValues("sensor-07", "temperature")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SensorAlert.WithLabelValues("sensor-07")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SensorAlert.WithLabelValues("sensor-04")), 0)
}
