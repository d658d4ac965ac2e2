// Package client is a typed HTTP client for the sensor telemetry API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
)

// ErrNotFound matches an APIError for a 404 response.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error: status %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrNotFound and the response was a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client calls a running sensord.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the service at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ListSensors returns every sensor with its derived classifications.
func (c *Client) ListSensors(ctx context.Context) ([]domain.SensorView, error) {
	var out []domain.SensorView
	return out, c.get(ctx, "/api/sensors", nil, &out)
}

// GetSensor returns one sensor. An unknown id yields an error matching ErrNotFound.
func (c *Client) GetSensor(ctx context.Context, id string) (domain.SensorView, error) {
	var out domain.SensorView
	return out, c.get(ctx, "/api/sensors/"+url.PathEscape(id), nil, &out)
}

// History returns the stored readings of a sensor over the last days.
// Zero days or limit leave the server defaults in place.
func (c *Client) History(ctx context.Context, id string, days, limit int) (domain.History, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.History
	return out, c.get(ctx, "/api/sensors/"+url.PathEscape(id)+"/history", q, &out)
}

// ClassifyAlert asks the service to classify a temperature and wind speed.
func (c *Client) ClassifyAlert(ctx context.Context, temperature, windSpeed float64) (domain.Alert, error) {
	q := url.Values{
		"temperature": {strconv.FormatFloat(temperature, 'f', -1, 64)},
		"windSpeed":   {strconv.FormatFloat(windSpeed, 'f', -1, 64)},
	}
	var out domain.Alert
	return out, c.get(ctx, "/api/alerts/classify", q, &out)
}

// Summary returns cross-sensor statistics and alert counts.
func (c *Client) Summary(ctx context.Context) (domain.Summary, error) {
	var out domain.Summary
	return out, c.get(ctx, "/api/analytics/summary", nil, &out)
}

// WindRose returns the eight-direction wind aggregation.
func (c *Client) WindRose(ctx context.Context) ([]domain.WindBucket, error) {
	var out []domain.WindBucket
	return out, c.get(ctx, "/api/analytics/wind", nil, &out)
}

// Forecast fetches the forecast for a coordinate. A nil coordinate uses the
// service default.
func (c *Client) Forecast(ctx context.Context, lat, lon *float64) (domain.Forecast, error) {
	q := url.Values{}
	if lat != nil {
		q.Set("lat", strconv.FormatFloat(*lat, 'f', -1, 64))
	}
	if lon != nil {
		q.Set("lon", strconv.FormatFloat(*lon, 'f', -1, 64))
	}
	var out domain.Forecast
	return out, c.get(ctx, "/api/forecast", q, &out)
}

// Ready reports nil when the service answers /readyz with 200.
func (c *Client) Ready(ctx context.Context) error {
	var out map[string]string
	return c.get(ctx, "/readyz", nil, &out)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}

	var payload struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		if payload.RequestID != "" {
			apiErr.RequestID = payload.RequestID
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
