package domain

import (
	"fmt"
	"time"
)

// TelemetryEvent is the published form of one sensor snapshot.
type TelemetryEvent struct {
	SensorID   string    `json:"sensorId"`
	SensorName string    `json:"sensorName"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Readings   Readings  `json:"readings"`
	Alert      Alert     `json:"alert"`
	Cardinal   string    `json:"cardinal"`
	EmittedAt  time.Time `json:"emittedAt"`
}

// NewTelemetryEvent derives a TelemetryEvent from a snapshot. EmittedAt comes
// from the package clock.
func NewTelemetryEvent(r SensorRecord) (TelemetryEvent, error) {
	if r.ID == "" {
		return TelemetryEvent{}, fmt.Errorf("%w: telemetry for record without id", ErrInvalidRecord)
	}
	if r.Readings.LastUpdated.IsZero() {
		return TelemetryEvent{}, fmt.Errorf("%w: sensor %q has never been updated", ErrInvalidRecord, r.ID)
	}
	return TelemetryEvent{
		SensorID:   r.ID,
		SensorName: r.Name,
		Latitude:   r.Location.Latitude,
		Longitude:  r.Location.Longitude,
		Readings:   r.Readings,
		Alert:      r.Alert(),
		Cardinal:   CardinalDirection(r.Readings.WindDirection),
		EmittedAt:  clock.Now().UTC(),
	}, nil
}

// SensorView is a record decorated with its derived classifications, as served
// to dashboards.
type SensorView struct {
	SensorRecord
	Alert           Alert           `json:"alert"`
	Cardinal        string          `json:"cardinal"`
	HumidityComfort HumidityComfort `json:"humidityComfort"`
}

// View decorates a record with alert, cardinal direction and humidity comfort.
func View(r SensorRecord) SensorView {
	return SensorView{
		SensorRecord:    r,
		Alert:           r.Alert(),
		Cardinal:        CardinalDirection(r.Readings.WindDirection),
		HumidityComfort: ComfortFor(r.Readings.Humidity),
	}
}

// HistoryPoint is one stored reading of a sensor.
type HistoryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindDirection float64   `json:"windDirection"`
	WindSpeed     float64   `json:"windSpeed"`
}

// History is a sensor's readings over a window.
type History struct {
	SensorID   string         `json:"sensorId"`
	SensorName string         `json:"sensorName"`
	History    []HistoryPoint `json:"history"`
}
