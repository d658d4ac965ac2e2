package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/sensor-telemetry-service/internal/adapter/http"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/couchcryptid/sensor-telemetry-service/internal/sensor"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockHistory struct {
	from, to time.Time
	limit    int
	points   []domain.HistoryPoint
	err      error
}

func (m *mockHistory) History(_ context.Context, _ string, from, to time.Time, limit int) ([]domain.HistoryPoint, error) {
	m.from, m.to, m.limit = from, to, limit
	return m.points, m.err
}

type mockForecast struct {
	lat, lon float64
	err      error
}

func (m *mockForecast) Fetch(_ context.Context, lat, lon float64) (domain.Forecast, error) {
	m.lat, m.lon = lat, lon
	if m.err != nil {
		return domain.Forecast{}, m.err
	}
	return domain.Forecast{Latitude: lat, Longitude: lon, Timezone: "America/Sao_Paulo"}, nil
}

func newDeps(t *testing.T) httpadapter.Deps {
	t.Helper()
	store, err := sensor.NewStore(domain.SeedSensors(now))
	require.NoError(t, err)
	return httpadapter.Deps{
		Sensors:            store,
		Ready:              &mockReadiness{},
		DefaultLat:         -21.45,
		DefaultLon:         -42.67,
		CORSAllowedOrigins: []string{"*"},
		Clock:              clockwork.NewFakeClockAt(now),
		Metrics:            observability.NewMetricsForTesting(),
	}
}

func newTestServer(t *testing.T, mutate ...func(*httpadapter.Deps)) *httpadapter.Server {
	t.Helper()
	deps := newDeps(t)
	for _, m := range mutate {
		m(&deps)
	}
	return httpadapter.NewServer(":0", deps, slog.Default())
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(t), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, func(d *httpadapter.Deps) {
		d.Ready = &mockReadiness{err: fmt.Errorf("simulator not running")}
	})
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "simulator not running", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListSensors(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/sensors")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	views := decode[[]domain.SensorView](t, rec)
	require.Len(t, views, 8)
	assert.Equal(t, "sensor-01", views[0].ID)
	for _, v := range views {
		assert.Equal(t, domain.ClassifyAlert(v.Readings.Temperature, v.Readings.WindSpeed), v.Alert)
		assert.Equal(t, domain.CardinalDirection(v.Readings.WindDirection), v.Cardinal)
		assert.NotEmpty(t, v.HumidityComfort)
	}
}

func TestGetSensor(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/sensors/sensor-02")

	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[domain.SensorView](t, rec)
	assert.Equal(t, "sensor-02", v.ID)
	assert.Equal(t, domain.AlertCritical, v.Alert.Level)
}

func TestGetSensorNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sensors/sensor-99", nil)
	req.Header.Set("X-Request-ID", "req-123")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "sensor not found", body["error"])
	assert.Equal(t, "req-123", body["request_id"])
}

func TestSensorHistory(t *testing.T) {
	hist := &mockHistory{points: []domain.HistoryPoint{{Timestamp: now, Temperature: 25.5}}}
	srv := newTestServer(t, func(d *httpadapter.Deps) { d.History = hist })

	rec := get(t, srv, "/api/sensors/sensor-01/history?days=2&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[domain.History](t, rec)
	assert.Equal(t, "sensor-01", body.SensorID)
	assert.NotEmpty(t, body.SensorName)
	require.Len(t, body.History, 1)
	assert.Equal(t, 25.5, body.History[0].Temperature)

	assert.Equal(t, now, hist.to)
	assert.Equal(t, now.Add(-48*time.Hour), hist.from)
	assert.Equal(t, 10, hist.limit)
}

func TestSensorHistoryDefaults(t *testing.T) {
	hist := &mockHistory{points: []domain.HistoryPoint{}}
	srv := newTestServer(t, func(d *httpadapter.Deps) { d.History = hist })

	rec := get(t, srv, "/api/sensors/sensor-01/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, now.Add(-7*24*time.Hour), hist.from)
	assert.Equal(t, 500, hist.limit)
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

func TestSensorHistoryErrors(t *testing.T) {
	hist := &mockHistory{}
	srv := newTestServer(t, func(d *httpadapter.Deps) { d.History = hist })

	tests := []struct {
		name   string
		target string
		status int
		msg    string
	}{
		{"unknown sensor", "/api/sensors/sensor-99/history", http.StatusNotFound, "sensor not found"},
		{"bad days", "/api/sensors/sensor-01/history?days=abc", http.StatusBadRequest, "days"},
		{"days out of range", "/api/sensors/sensor-01/history?days=0", http.StatusBadRequest, "days"},
		{"bad limit", "/api/sensors/sensor-01/history?limit=-1", http.StatusBadRequest, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.msg)
		})
	}

	hist.err = errors.New("disk I/O error")
	rec := get(t, srv, "/api/sensors/sensor-01/history")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSensorHistoryDisabled(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/sensors/sensor-01/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyAlert(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query string
		level domain.AlertLevel
	}{
		{"temperature=36&windSpeed=0", domain.AlertCritical},
		{"temperature=31&windSpeed=0", domain.AlertAttention},
		{"temperature=20&windSpeed=0", domain.AlertNormal},
		{"temperature=20&windSpeed=85", domain.AlertCritical},
		{"temperature=20&windSpeed=55", domain.AlertAttention},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, srv, "/api/alerts/classify?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.level, decode[domain.Alert](t, rec).Level)
		})
	}
}

func TestClassifyAlertBadParams(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query string
		param string
	}{
		{"windSpeed=0", "temperature"},
		{"temperature=hot&windSpeed=0", "temperature"},
		{"temperature=20", "windSpeed"},
		{"temperature=20&windSpeed=-5", "windSpeed"},
		{"temperature=NaN&windSpeed=0", "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, srv, "/api/alerts/classify?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.param)
		})
	}
}

func TestAnalyticsSummary(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/analytics/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	s := decode[domain.Summary](t, rec)
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 4, s.Alerts[domain.AlertCritical])
	assert.Equal(t, 1, s.Alerts[domain.AlertAttention])
	assert.Equal(t, 3, s.Alerts[domain.AlertNormal])
}

func TestAnalyticsWind(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/analytics/wind")
	require.Equal(t, http.StatusOK, rec.Code)

	buckets := decode[[]domain.WindBucket](t, rec)
	require.Len(t, buckets, 8)
	total := 0
	for i, b := range buckets {
		assert.Equal(t, domain.RosePoints[i], b.Direction)
		total += b.Count
	}
	assert.Equal(t, 8, total)
}

func TestForecast(t *testing.T) {
	fc := &mockForecast{}
	srv := newTestServer(t, func(d *httpadapter.Deps) { d.Forecast = fc })

	rec := get(t, srv, "/api/forecast")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -21.45, fc.lat)
	assert.Equal(t, -42.67, fc.lon)

	rec = get(t, srv, "/api/forecast?lat=10.5&lon=20.25")
	require.Equal(t, http.StatusOK, rec.Code)
	f := decode[domain.Forecast](t, rec)
	assert.Equal(t, 10.5, f.Latitude)
	assert.Equal(t, 20.25, f.Longitude)
}

func TestForecastErrors(t *testing.T) {
	fc := &mockForecast{}
	srv := newTestServer(t, func(d *httpadapter.Deps) { d.Forecast = fc })

	rec := get(t, srv, "/api/forecast?lat=91")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "lat")

	rec = get(t, srv, "/api/forecast?lon=east")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "lon")

	fc.err = fmt.Errorf("%w: status 500", domain.ErrForecastUnavailable)
	rec = get(t, srv, "/api/forecast")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "forecast unavailable", decode[map[string]string](t, rec)["error"])
}

func TestForecastDisabled(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/forecast")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sensors", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouteMetrics(t *testing.T) {
	deps := newDeps(t)
	srv := httpadapter.NewServer(":0", deps, slog.Default())

	get(t, srv, "/api/sensors/sensor-01")
	get(t, srv, "/api/sensors/sensor-99")

	assert.InDelta(t, 1, testutil.ToFloat64(deps.Metrics.HTTPRequests.WithLabelValues("GET", "/api/sensors/{id}", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(deps.Metrics.HTTPRequests.WithLabelValues("GET", "/api/sensors/{id}", "404")), 0)
}
