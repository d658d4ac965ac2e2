package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SensorReader is the read side of the sensor store.
type SensorReader interface {
	List(ctx context.Context) []domain.SensorRecord
	Get(ctx context.Context, id string) (domain.SensorRecord, bool)
}

// HistoryReader serves stored readings for one sensor.
type HistoryReader interface {
	History(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]domain.HistoryPoint, error)
}

// Deps are the collaborators behind the API routes. A nil History or
// Forecast leaves the matching route unregistered.
type Deps struct {
	Sensors  SensorReader
	Ready    ReadinessChecker
	History  HistoryReader
	Forecast domain.ForecastProvider

	DefaultLat float64
	DefaultLon float64

	CORSAllowedOrigins []string
	Clock              clockwork.Clock
	Metrics            *observability.Metrics
}

// Server exposes the sensor API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the probe routes and the /api routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		deps:   deps,
		logger: logger,
	}

	r := chi.NewRouter()
	mw := newMiddleware(logger, deps.Metrics)
	r.Use(mw.requestID, mw.logRequest, mw.observe, mw.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(deps.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/sensors", s.handleListSensors)
		r.Get("/sensors/{id}", s.handleGetSensor)
		if deps.History != nil {
			r.Get("/sensors/{id}/history", s.handleSensorHistory)
		}
		r.Get("/alerts/classify", s.handleClassify)
		r.Get("/analytics/summary", s.handleSummary)
		r.Get("/analytics/wind", s.handleWindRose)
		if deps.Forecast != nil {
			r.Get("/forecast", s.handleForecast)
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: deps.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
