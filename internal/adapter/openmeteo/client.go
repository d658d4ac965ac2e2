package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata" // forecast timezones resolve without a system zoneinfo

	"github.com/couchcryptid/sensor-telemetry-service/internal/config"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
)

const (
	currentFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code,surface_pressure,visibility,uv_index"
	hourlyFields  = "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code,surface_pressure,precipitation"
	dailyFields   = "temperature_2m_max,temperature_2m_min,weather_code,precipitation_sum,wind_speed_10m_max,uv_index_max"

	hourLayout = "2006-01-02T15:04"
	dayLayout  = "2006-01-02"
)

// Client implements domain.ForecastProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timezone   string
	location   *time.Location
	days       int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client from the FORECAST_* settings.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	loc, err := time.LoadLocation(cfg.ForecastTimezone)
	if err != nil {
		return nil, fmt.Errorf("load forecast timezone %q: %w", cfg.ForecastTimezone, err)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.ForecastTimeout,
		},
		baseURL:  cfg.ForecastBaseURL,
		timezone: cfg.ForecastTimezone,
		location: loc,
		days:     cfg.ForecastDays,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Fetch retrieves current conditions plus hourly and daily forecasts for a
// coordinate. Every failure wraps domain.ErrForecastUnavailable.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (domain.Forecast, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":       {currentFields},
		"hourly":        {hourlyFields},
		"daily":         {dailyFields},
		"timezone":      {c.timezone},
		"forecast_days": {strconv.Itoa(c.days)},
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ForecastAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		c.logger.Warn("forecast request failed", "error", err, "lat", lat, "lon", lon)
		return domain.Forecast{}, fmt.Errorf("%w: %w", domain.ErrForecastUnavailable, err)
	}

	f, err := c.toForecast(resp)
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return domain.Forecast{}, fmt.Errorf("%w: %w", domain.ErrForecastUnavailable, err)
	}
	c.metrics.ForecastRequests.WithLabelValues("success").Inc()
	return f, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return response{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) toForecast(r response) (domain.Forecast, error) {
	f := domain.Forecast{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
		Current: domain.CurrentConditions{
			Temperature:   r.Current.Temperature,
			Humidity:      r.Current.Humidity,
			WindSpeed:     r.Current.WindSpeed,
			WindDirection: r.Current.WindDirection,
			WeatherCode:   r.Current.WeatherCode,
			Pressure:      r.Current.Pressure,
			Visibility:    r.Current.Visibility,
			UVIndex:       r.Current.UVIndex,
		},
		Condition: domain.ConditionFor(r.Current.WeatherCode),
		Hourly:    make([]domain.HourlyPoint, 0, len(r.Hourly.Time)),
		Daily:     make([]domain.DailyPoint, 0, len(r.Daily.Time)),
	}

	for i, s := range r.Hourly.Time {
		ts, err := time.ParseInLocation(hourLayout, s, c.location)
		if err != nil {
			return domain.Forecast{}, fmt.Errorf("parse hourly time %q: %w", s, err)
		}
		f.Hourly = append(f.Hourly, domain.HourlyPoint{
			Time:          ts,
			Temperature:   at(r.Hourly.Temperature, i),
			Humidity:      at(r.Hourly.Humidity, i),
			WindSpeed:     at(r.Hourly.WindSpeed, i),
			WindDirection: at(r.Hourly.WindDirection, i),
			WeatherCode:   at(r.Hourly.WeatherCode, i),
			Pressure:      at(r.Hourly.Pressure, i),
			Precipitation: at(r.Hourly.Precipitation, i),
		})
	}

	for i, s := range r.Daily.Time {
		day, err := time.ParseInLocation(dayLayout, s, c.location)
		if err != nil {
			return domain.Forecast{}, fmt.Errorf("parse daily time %q: %w", s, err)
		}
		f.Daily = append(f.Daily, domain.DailyPoint{
			Date:           day,
			TemperatureMax: at(r.Daily.TemperatureMax, i),
			TemperatureMin: at(r.Daily.TemperatureMin, i),
			WeatherCode:    at(r.Daily.WeatherCode, i),
			Precipitation:  at(r.Daily.Precipitation, i),
			WindSpeedMax:   at(r.Daily.WindSpeedMax, i),
			UVIndexMax:     at(r.Daily.UVIndexMax, i),
		})
	}
	return f, nil
}

// at tolerates ragged arrays in the response.
func at[T any](s []T, i int) T {
	var zero T
	if i < len(s) {
		return s[i]
	}
	return zero
}

// Open-Meteo API response types.

type response struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   current `json:"current"`
	Hourly    hourly  `json:"hourly"`
	Daily     daily   `json:"daily"`
}

type current struct {
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindDirection float64 `json:"wind_direction_10m"`
	WeatherCode   int     `json:"weather_code"`
	Pressure      float64 `json:"surface_pressure"`
	Visibility    float64 `json:"visibility"`
	UVIndex       float64 `json:"uv_index"`
}

type hourly struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	Humidity      []float64 `json:"relative_humidity_2m"`
	WindSpeed     []float64 `json:"wind_speed_10m"`
	WindDirection []float64 `json:"wind_direction_10m"`
	WeatherCode   []int     `json:"weather_code"`
	Pressure      []float64 `json:"surface_pressure"`
	Precipitation []float64 `json:"precipitation"`
}

type daily struct {
	Time           []string  `json:"time"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
	WeatherCode    []int     `json:"weather_code"`
	Precipitation  []float64 `json:"precipitation_sum"`
	WindSpeedMax   []float64 `json:"wind_speed_10m_max"`
	UVIndexMax     []float64 `json:"uv_index_max"`
}
