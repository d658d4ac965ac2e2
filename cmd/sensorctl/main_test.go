package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/sensor-telemetry-service/internal/adapter/http"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/couchcryptid/sensor-telemetry-service/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyAlways struct{}

func (readyAlways) CheckReadiness(context.Context) error { return nil }

func newTestService(t *testing.T) string {
	t.Helper()
	store, err := sensor.NewStore(domain.SeedSensors(time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Sensors:            store,
		Ready:              readyAlways{},
		CORSAllowedOrigins: []string{"*"},
		Metrics:            observability.NewMetricsForTesting(),
	}, slog.Default())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSensorsList(t *testing.T) {
	addr := newTestService(t)

	out, err := execute(t, "sensors", "list", "--addr", addr, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "sensor-01")
	assert.Contains(t, out, "sensor-08")
	assert.Contains(t, out, "ALERT")
}

func TestSensorsGetJSON(t *testing.T) {
	addr := newTestService(t)

	out, err := execute(t, "sensors", "get", "sensor-02", "--addr", addr, "--json")
	require.NoError(t, err)

	var v domain.SensorView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "sensor-02", v.ID)
	assert.Equal(t, domain.AlertCritical, v.Alert.Level)
}

func TestSensorsGetUnknown(t *testing.T) {
	addr := newTestService(t)

	_, err := execute(t, "sensors", "get", "sensor-99", "--addr", addr, "--json=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor not found")
}

func TestAlertClassify(t *testing.T) {
	addr := newTestService(t)

	out, err := execute(t, "alert", "classify", "--temperature", "36", "--wind-speed", "0", "--addr", addr, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Critical")
}

func TestAnalyticsSummary(t *testing.T) {
	addr := newTestService(t)

	out, err := execute(t, "analytics", "summary", "--addr", addr, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "8 sensors")
	assert.Contains(t, out, "temperature")
}
