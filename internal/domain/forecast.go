package domain

import (
	"context"
	"errors"
	"time"
)

// ErrForecastUnavailable wraps every failure to obtain a forecast from the upstream provider.
var ErrForecastUnavailable = errors.New("forecast unavailable")

// CurrentConditions is the forecast provider's "now" block.
type CurrentConditions struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	WeatherCode   int     `json:"weatherCode"`
	Pressure      float64 `json:"pressure"`
	Visibility    float64 `json:"visibility"` // meters
	UVIndex       float64 `json:"uvIndex"`
}

// HourlyPoint is one hour of forecast.
type HourlyPoint struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection float64   `json:"windDirection"`
	WeatherCode   int       `json:"weatherCode"`
	Pressure      float64   `json:"pressure"`
	Precipitation float64   `json:"precipitation"`
}

// DailyPoint is one day of forecast.
type DailyPoint struct {
	Date           time.Time `json:"date"`
	TemperatureMax float64   `json:"temperatureMax"`
	TemperatureMin float64   `json:"temperatureMin"`
	WeatherCode    int       `json:"weatherCode"`
	Precipitation  float64   `json:"precipitation"`
	WindSpeedMax   float64   `json:"windSpeedMax"`
	UVIndexMax     float64   `json:"uvIndexMax"`
}

// Forecast is a provider-neutral weather forecast for one coordinate.
type Forecast struct {
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Timezone  string            `json:"timezone"`
	Current   CurrentConditions `json:"current"`
	Condition WeatherCondition  `json:"condition"`
	Hourly    []HourlyPoint     `json:"hourly"`
	Daily     []DailyPoint      `json:"daily"`
}

// ForecastProvider fetches a forecast for a coordinate.
type ForecastProvider interface {
	Fetch(ctx context.Context, lat, lon float64) (Forecast, error)
}

// WeatherCondition describes a WMO weather interpretation code.
type WeatherCondition struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var weatherConditions = map[int]WeatherCondition{
	0:  {0, "Clear sky", "sun"},
	1:  {1, "Partly cloudy", "cloud-sun"},
	2:  {2, "Partly cloudy", "cloud-sun"},
	3:  {3, "Overcast", "cloud"},
	45: {45, "Fog", "cloud"},
	48: {48, "Depositing rime fog", "cloud"},
	51: {51, "Light drizzle", "cloud-drizzle"},
	53: {53, "Moderate drizzle", "cloud-drizzle"},
	55: {55, "Dense drizzle", "cloud-drizzle"},
	61: {61, "Light rain", "cloud-rain"},
	63: {63, "Moderate rain", "cloud-rain"},
	65: {65, "Heavy rain", "cloud-rain"},
	71: {71, "Light snow", "cloud-snow"},
	73: {73, "Moderate snow", "cloud-snow"},
	75: {75, "Heavy snow", "cloud-snow"},
	80: {80, "Light rain showers", "cloud-rain"},
	81: {81, "Moderate rain showers", "cloud-rain"},
	82: {82, "Violent rain showers", "cloud-rain"},
	95: {95, "Thunderstorm", "cloud-lightning"},
	96: {96, "Thunderstorm with light hail", "cloud-lightning"},
	99: {99, "Thunderstorm with heavy hail", "cloud-lightning"},
}

// ConditionFor looks up a WMO code, falling back to clear sky for unknown codes.
func ConditionFor(code int) WeatherCondition {
	if c, ok := weatherConditions[code]; ok {
		return c
	}
	return weatherConditions[0]
}
