package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord is returned when a sensor record fails construction checks.
var ErrInvalidRecord = errors.New("invalid sensor record")

// Reading bounds applied on every mutation.
const (
	MinTemperature = 0.0
	MaxTemperature = 50.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
	MinPressure    = 980.0
	MaxPressure    = 1040.0
	MinWindSpeed   = 0.0
	MaxWindSpeed   = 100.0
)

// Location is the fixed physical position of a sensor.
type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	Description string  `json:"description"`
}

// Readings is the mutable part of a sensor record.
type Readings struct {
	Temperature   float64   `json:"temperature"`   // °C
	Humidity      float64   `json:"humidity"`      // %
	Pressure      float64   `json:"pressure"`      // hPa
	WindDirection float64   `json:"windDirection"` // degrees, [0,360)
	WindSpeed     float64   `json:"windSpeed"`     // km/h
	LastUpdated   time.Time `json:"lastUpdated"`
}

// SensorRecord is one monitored location: identity, fixed position and current readings.
type SensorRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
	Readings Readings `json:"readings"`
}

// ReadingPatch carries a partial update. Nil fields leave the stored value untouched.
type ReadingPatch struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	WindDirection *float64 `json:"windDirection,omitempty"`
	WindSpeed     *float64 `json:"windSpeed,omitempty"`
}

// IsEmpty reports whether the patch sets no field.
func (p ReadingPatch) IsEmpty() bool {
	return p.Temperature == nil && p.Humidity == nil && p.Pressure == nil &&
		p.WindDirection == nil && p.WindSpeed == nil
}

// Merge returns r with the patch fields applied and normalized. LastUpdated is
// stamped with at, moved forward when at does not advance past the previous value.
func (p ReadingPatch) Merge(r Readings, at time.Time) Readings {
	if p.Temperature != nil {
		r.Temperature = *p.Temperature
	}
	if p.Humidity != nil {
		r.Humidity = *p.Humidity
	}
	if p.Pressure != nil {
		r.Pressure = *p.Pressure
	}
	if p.WindDirection != nil {
		r.WindDirection = *p.WindDirection
	}
	if p.WindSpeed != nil {
		r.WindSpeed = *p.WindSpeed
	}
	r = r.Normalize()
	r.LastUpdated = NextTimestamp(r.LastUpdated, at)
	return r
}

// Normalize clamps the bounded readings and wraps wind direction into [0,360).
// NaN values collapse to the lower bound.
func (r Readings) Normalize() Readings {
	r.Temperature = clamp(r.Temperature, MinTemperature, MaxTemperature)
	r.Humidity = clamp(r.Humidity, MinHumidity, MaxHumidity)
	r.Pressure = clamp(r.Pressure, MinPressure, MaxPressure)
	r.WindSpeed = clamp(r.WindSpeed, MinWindSpeed, MaxWindSpeed)
	r.WindDirection = WrapDegrees(r.WindDirection)
	return r
}

// WrapDegrees maps any angle into [0,360).
func WrapDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -1e-15 + 360 rounds up to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// NextTimestamp returns at, or prev plus one nanosecond when at would not
// move the timestamp forward.
func NextTimestamp(prev, at time.Time) time.Time {
	if !prev.IsZero() && !at.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return at
}

// Validate checks the construction-time invariants of a record set: non-empty,
// unique ids.
func Validate(records []SensorRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has an empty id", ErrInvalidRecord, i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRecord, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }
