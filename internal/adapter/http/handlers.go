package http

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryDays  = 7
	maxHistoryDays      = 365
	defaultHistoryLimit = 500
	maxHistoryLimit     = 10000
)

const msgSensorNotFound = "sensor not found"

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	records := s.deps.Sensors.List(r.Context())
	views := make([]domain.SensorView, 0, len(records))
	for _, rec := range records {
		views = append(views, domain.View(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Sensors.Get(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, msgSensorNotFound)
		return
	}
	writeJSON(w, http.StatusOK, domain.View(rec))
}

func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Sensors.Get(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, msgSensorNotFound)
		return
	}

	days, err := queryInt(r, "days", defaultHistoryDays, 1, maxHistoryDays)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	to := s.deps.Clock.Now()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	points, err := s.deps.History.History(r.Context(), rec.ID, from, to, limit)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("history query failed", "error", err, "sensor_id", rec.ID)
		writeError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, domain.History{
		SensorID:   rec.ID,
		SensorName: rec.Name,
		History:    points,
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	temp, err := queryFloat(r, "temperature", nil, -math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wind, err := queryFloat(r, "windSpeed", nil, 0, math.MaxFloat64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.ClassifyAlert(temp, wind))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Summarize(s.deps.Sensors.List(r.Context())))
}

func (s *Server) handleWindRose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.WindRose(s.deps.Sensors.List(r.Context())))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat", &s.deps.DefaultLat, -90, 90)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon", &s.deps.DefaultLon, -180, 180)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.deps.Forecast.Fetch(r.Context(), lat, lon)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Warn("forecast fetch failed", "error", err)
		if errors.Is(err, domain.ErrForecastUnavailable) {
			writeError(w, r, http.StatusBadGateway, domain.ErrForecastUnavailable.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, f)
}
