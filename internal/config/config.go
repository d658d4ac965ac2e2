package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Simulation.
	SimulationInterval time.Duration
	SimulationSeed     uint64
	SimulatedLatency   time.Duration

	// Telemetry pipeline.
	BatchSize int
	QueueSize int

	// Open-Meteo forecast.
	ForecastEnabled    bool
	ForecastBaseURL    string
	ForecastTimeout    time.Duration
	ForecastCacheTTL   time.Duration
	ForecastCacheSize  int
	ForecastTimezone   string
	ForecastDays       int
	ForecastDefaultLat float64
	ForecastDefaultLon float64

	// Kafka telemetry sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// MQTT telemetry sink.
	MQTTEnabled     bool
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTTopicPrefix string

	// SQLite history.
	HistoryEnabled   bool
	HistoryDBPath    string
	HistoryRetention time.Duration
}

// SinksEnabled reports whether any telemetry sink is configured.
func (c *Config) SinksEnabled() bool {
	return c.KafkaEnabled || c.MQTTEnabled || c.HistoryEnabled
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is applied first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		ForecastBaseURL:  sharedcfg.EnvOrDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		ForecastTimezone: sharedcfg.EnvOrDefault("FORECAST_TIMEZONE", "America/Sao_Paulo"),

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "sensor-telemetry"),

		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:    sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "sensor-telemetry-service"),
		MQTTTopicPrefix: strings.Trim(sharedcfg.EnvOrDefault("MQTT_TOPIC_PREFIX", "sensors"), "/"),

		HistoryDBPath: os.Getenv("HISTORY_DB_PATH"),
	}

	if cfg.SimulationInterval, err = parseDuration("SIMULATION_INTERVAL", "10s", false); err != nil {
		return nil, err
	}
	if cfg.SimulatedLatency, err = parseDuration("SIMULATED_LATENCY", "0s", true); err != nil {
		return nil, err
	}
	if cfg.SimulationSeed, err = parseSeed(); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = parseInt("PIPELINE_BATCH_SIZE", 50, 1, 1000); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = parseInt("PIPELINE_QUEUE_SIZE", 256, 1, 1<<20); err != nil {
		return nil, err
	}

	if err := loadForecast(cfg); err != nil {
		return nil, err
	}
	if err := loadSinks(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadForecast(cfg *Config) error {
	var err error
	if cfg.ForecastEnabled, err = parseBool("FORECAST_ENABLED", true); err != nil {
		return err
	}
	if cfg.ForecastTimeout, err = parseDuration("FORECAST_TIMEOUT", "5s", false); err != nil {
		return err
	}
	if cfg.ForecastCacheTTL, err = parseDuration("FORECAST_CACHE_TTL", "10m", true); err != nil {
		return err
	}
	if cfg.ForecastCacheSize, err = parseInt("FORECAST_CACHE_SIZE", 100, 1, 1<<20); err != nil {
		return err
	}
	if cfg.ForecastDays, err = parseInt("FORECAST_DAYS", 7, 1, 16); err != nil {
		return err
	}
	if cfg.ForecastDefaultLat, err = parseCoordinate("FORECAST_DEFAULT_LAT", -21.45, 90); err != nil {
		return err
	}
	if cfg.ForecastDefaultLon, err = parseCoordinate("FORECAST_DEFAULT_LON", -42.67, 180); err != nil {
		return err
	}
	if cfg.ForecastEnabled && cfg.ForecastBaseURL == "" {
		return errors.New("FORECAST_ENABLED is true but FORECAST_BASE_URL is empty")
	}
	return nil
}

func loadSinks(cfg *Config) error {
	var err error

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}
	if cfg.KafkaEnabled, err = parseBool("KAFKA_ENABLED", len(cfg.KafkaBrokers) > 0); err != nil {
		return err
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}

	if cfg.MQTTEnabled, err = parseBool("MQTT_ENABLED", cfg.MQTTBrokerURL != ""); err != nil {
		return err
	}
	if cfg.MQTTEnabled && cfg.MQTTBrokerURL == "" {
		return errors.New("MQTT_ENABLED is true but MQTT_BROKER_URL is not set")
	}

	cfg.HistoryEnabled = cfg.HistoryDBPath != ""
	if cfg.HistoryRetention, err = parseDuration("HISTORY_RETENTION", "168h", true); err != nil {
		return err
	}
	return nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, s)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %d: must be between %d and %d", key, n, lo, hi)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseCoordinate(key string, def, limit float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("invalid %s %v: must be within ±%v", key, v, limit)
	}
	return v, nil
}

// parseSeed reads SIMULATION_SEED. Zero means seed from the clock at startup.
func parseSeed() (uint64, error) {
	s := os.Getenv("SIMULATION_SEED")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SIMULATION_SEED %q: %w", s, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
