package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sensor_telemetry"

// Metrics holds the Prometheus counters, histograms, and gauges for the sensor service.
type Metrics struct {
	// Store metrics.
	SensorLookups *prometheus.CounterVec // labels: operation={list,get,apply}, result={hit,miss}
	Mutations     *prometheus.CounterVec // labels: source={simulation,patch}
	SensorReading *prometheus.GaugeVec   // labels: sensor_id, metric={temperature,humidity,pressure,wind_direction,wind_speed}
	SensorAlert   *prometheus.GaugeVec   // labels: sensor_id; value is the alert severity 0..2

	// Simulator metrics.
	SimulationTicks        prometheus.Counter
	SimulationTickDuration prometheus.Histogram
	SimulationRunning      prometheus.Gauge

	// Telemetry pipeline metrics.
	SnapshotsEnqueued       prometheus.Counter
	SnapshotsDropped        prometheus.Counter
	SnapshotsConsumed       prometheus.Counter
	EventsPublished         *prometheus.CounterVec // labels: sink
	SinkErrors              *prometheus.CounterVec // labels: sink
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// History metrics.
	HistoryRowsWritten prometheus.Counter
	HistoryRowsPruned  prometheus.Counter

	// Forecast metrics.
	ForecastRequests    *prometheus.CounterVec // labels: outcome={success,error}
	ForecastCache       *prometheus.CounterVec // labels: result={hit,miss}
	ForecastAPIDuration prometheus.Histogram
	ForecastEnabled     prometheus.Gauge

	// HTTP metrics.
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Register adds the metrics to reg. Used by tests that scrape a private registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SensorLookups,
		m.Mutations,
		m.SensorReading,
		m.SensorAlert,
		m.SimulationTicks,
		m.SimulationTickDuration,
		m.SimulationRunning,
		m.SnapshotsEnqueued,
		m.SnapshotsDropped,
		m.SnapshotsConsumed,
		m.EventsPublished,
		m.SinkErrors,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.HistoryRowsWritten,
		m.HistoryRowsPruned,
		m.ForecastRequests,
		m.ForecastCache,
		m.ForecastAPIDuration,
		m.ForecastEnabled,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	}
}

func newMetrics() *Metrics {
	return &Metrics{
		SensorLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_lookups_total",
			Help:      "Store lookups by operation and result.",
		}, []string{"operation", "result"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_mutations_total",
			Help:      "Reading mutations applied to sensor records, by source.",
		}, []string{"source"}),
		SensorReading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_reading",
			Help:      "Latest reading per sensor and metric.",
		}, []string{"sensor_id", "metric"}),
		SensorAlert: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_alert_severity",
			Help:      "Current alert severity per sensor: 0 normal, 1 attention, 2 critical.",
		}, []string{"sensor_id"}),
		SimulationTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_ticks_total",
			Help:      "Completed simulation ticks.",
		}),
		SimulationTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_tick_duration_seconds",
			Help:      "Duration of one simulation pass over all sensors.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_running",
			Help:      "1 when the simulator is active, 0 when stopped.",
		}),
		SnapshotsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_enqueued_total",
			Help:      "Sensor snapshots handed to the telemetry queue.",
		}),
		SnapshotsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_dropped_total",
			Help:      "Sensor snapshots dropped because the telemetry queue was full.",
		}),
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_consumed_total",
			Help:      "Sensor snapshots read from the telemetry queue.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Telemetry events written, by sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed batch writes, by sink.",
		}, []string{"sink"}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Snapshots that could not be turned into telemetry events.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the telemetry pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of snapshots per telemetry batch.",
			Buckets:   []float64{1, 5, 8, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		HistoryRowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_rows_written_total",
			Help:      "Readings inserted into the history store.",
		}),
		HistoryRowsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_rows_pruned_total",
			Help:      "Readings deleted by history retention.",
		}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_requests_total",
			Help:      "Forecast API requests by outcome.",
		}, []string{"outcome"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		ForecastAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_api_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ForecastEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_enabled",
			Help:      "1 when the forecast endpoint is enabled, 0 otherwise.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
