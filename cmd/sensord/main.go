package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/sensor-telemetry-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sensor-telemetry-service/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/sensor-telemetry-service/internal/adapter/mqtt"
	"github.com/couchcryptid/sensor-telemetry-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/sensor-telemetry-service/internal/adapter/sqlite"
	"github.com/couchcryptid/sensor-telemetry-service/internal/config"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/couchcryptid/sensor-telemetry-service/internal/pipeline"
	"github.com/couchcryptid/sensor-telemetry-service/internal/sensor"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sensor.NewStore(domain.SeedSensors(clock.Now()),
		sensor.WithClock(clock),
		sensor.WithLatency(cfg.SimulatedLatency),
		sensor.WithMetrics(metrics),
		sensor.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to build sensor store", "error", err)
		os.Exit(1)
	}

	deps := httpadapter.Deps{
		Sensors:            store,
		DefaultLat:         cfg.ForecastDefaultLat,
		DefaultLon:         cfg.ForecastDefaultLon,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Clock:              clock,
		Metrics:            metrics,
	}

	// Initialize forecast provider (feature-flagged via FORECAST_ENABLED).
	if cfg.ForecastEnabled {
		client, err := openmeteo.NewClient(cfg, logger, metrics)
		if err != nil {
			logger.Error("failed to build forecast client", "error", err)
			os.Exit(1)
		}
		deps.Forecast = client
		if cfg.ForecastCacheTTL > 0 {
			deps.Forecast = openmeteo.NewCachedProvider(client, cfg.ForecastCacheSize, cfg.ForecastCacheTTL, clock, metrics)
		}
		metrics.ForecastEnabled.Set(1)
		logger.Info("forecast enabled", "base_url", cfg.ForecastBaseURL, "cache_ttl", cfg.ForecastCacheTTL)
	} else {
		logger.Info("forecast disabled")
	}

	// Telemetry sinks.
	var sinks []pipeline.Sink
	var closers []func() error

	if cfg.HistoryEnabled {
		db, err := sqlite.Open(ctx, cfg.HistoryDBPath)
		if err != nil {
			logger.Error("failed to open history database", "error", err, "path", cfg.HistoryDBPath)
			os.Exit(1)
		}
		recorder := sqlite.NewRecorder(db, cfg.HistoryRetention, clock, logger, metrics)
		deps.History = recorder
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: recorder})
		closers = append(closers, recorder.Close)
		logger.Info("history enabled", "path", cfg.HistoryDBPath, "retention", cfg.HistoryRetention)
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		closers = append(closers, writer.Close)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.MQTTEnabled {
		publisher := mqttadapter.NewPublisher(cfg, logger)
		// paho retries the connection in the background; publishes fail with
		// ErrNotConnected until it is up.
		go func() {
			if err := publisher.Connect(ctx); err != nil {
				logger.Warn("mqtt connect failed", "error", err, "broker", cfg.MQTTBrokerURL)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "mqtt", Loader: publisher})
		closers = append(closers, publisher.Close)
		logger.Info("mqtt sink enabled", "broker", cfg.MQTTBrokerURL, "prefix", cfg.MQTTTopicPrefix)
	}

	simOpts := []sensor.SimulatorOption{
		sensor.WithSimulatorClock(clock),
		sensor.WithSeed(cfg.SimulationSeed),
		sensor.WithSimulatorMetrics(metrics),
		sensor.WithSimulatorLogger(logger),
	}

	pipelineDone := make(chan struct{})
	if len(sinks) > 0 {
		queue := pipeline.NewSnapshotQueue(cfg.QueueSize, logger, metrics)
		loader := pipeline.NewMultiLoader(metrics, sinks...)
		p := pipeline.New(queue, pipeline.NewTransformer(), loader, logger, metrics, cfg.BatchSize)
		simOpts = append(simOpts, sensor.WithSnapshotHandler(func(records []domain.SensorRecord) {
			queue.Enqueue(records)
		}))

		// Start telemetry pipeline.
		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("telemetry pipeline enabled", "sinks", loader.Names())
	} else {
		close(pipelineDone)
		logger.Info("no telemetry sinks configured")
	}

	sim := sensor.NewSimulator(store, cfg.SimulationInterval, simOpts...)
	deps.Ready = sim
	sim.Start(ctx)

	srv := httpadapter.NewServer(cfg.HTTPAddr, deps, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sim.Stop()

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
