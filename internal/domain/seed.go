package domain

import "time"

// SeedSensors returns the fixed startup record set: four stations around
// Leopoldina and four around Cataguases (MG, Brazil). Every record is stamped
// with at. Wind speeds are field observations in m/s converted to km/h.
func SeedSensors(at time.Time) []SensorRecord {
	seed := []SensorRecord{
		{ID: "sensor-01", Name: "Leopoldina Norte",
			Location: Location{Latitude: -21.515, Longitude: -42.642, Description: "Quinta Residência"},
			Readings: Readings{Temperature: 35.5, Humidity: 65, Pressure: 1012, WindDirection: 135, WindSpeed: 7.2}},
		{ID: "sensor-02", Name: "Leopoldina Sul",
			Location: Location{Latitude: -21.544, Longitude: -42.642, Description: "Bandeirantes"},
			Readings: Readings{Temperature: 36.2, Humidity: 60, Pressure: 1010, WindDirection: 315, WindSpeed: 24.1}},
		{ID: "sensor-03", Name: "Leopoldina Leste",
			Location: Location{Latitude: -21.5295, Longitude: -42.63, Description: "Rosário"},
			Readings: Readings{Temperature: 26.8, Humidity: 70, Pressure: 1015, WindDirection: 135, WindSpeed: 5.8}},
		{ID: "sensor-04", Name: "Leopoldina Oeste",
			Location: Location{Latitude: -21.5295, Longitude: -42.655, Description: "Vila Esteves"},
			Readings: Readings{Temperature: 25.5, Humidity: 72, Pressure: 1016, WindDirection: 180, WindSpeed: 4.0}},
		{ID: "sensor-05", Name: "Cataguases Norte",
			Location: Location{Latitude: -21.379, Longitude: -42.6961, Description: "Santa Clara"},
			Readings: Readings{Temperature: 31.5, Humidity: 65, Pressure: 1013, WindDirection: 45, WindSpeed: 15.5}},
		{ID: "sensor-06", Name: "Cataguases Sul",
			Location: Location{Latitude: -21.406, Longitude: -42.6961, Description: "Pouso Alegre"},
			Readings: Readings{Temperature: 27.2, Humidity: 68, Pressure: 1014, WindDirection: 225, WindSpeed: 35.3}},
		{ID: "sensor-07", Name: "Cataguases Leste",
			Location: Location{Latitude: -21.3926, Longitude: -42.683, Description: "Paraíso"},
			Readings: Readings{Temperature: 37.1, Humidity: 58, Pressure: 1009, WindDirection: 315, WindSpeed: 18.0}},
		{ID: "sensor-08", Name: "Cataguases Oeste",
			Location: Location{Latitude: -21.3926, Longitude: -42.709, Description: "Granjaria"},
			Readings: Readings{Temperature: 35.8, Humidity: 61, Pressure: 1011, WindDirection: 270, WindSpeed: 14.8}},
	}
	for i := range seed {
		seed[i].Readings.LastUpdated = at
	}
	return seed
}
