package domain

// AlertLevel is the derived classification of a sensor's temperature and wind speed.
type AlertLevel string

const (
	AlertNormal    AlertLevel = "Normal"
	AlertAttention AlertLevel = "Attention"
	AlertCritical  AlertLevel = "Critical"
)

// Alert thresholds. A reading strictly above a threshold escalates the level.
const (
	CriticalTemperature  = 35.0
	CriticalWindSpeed    = 80.0
	AttentionTemperature = 30.0
	AttentionWindSpeed   = 50.0
)

// AlertLevels lists the levels from least to most severe.
var AlertLevels = []AlertLevel{AlertNormal, AlertAttention, AlertCritical}

// Alert is the result of ClassifyAlert.
type Alert struct {
	Level AlertLevel `json:"level"`
	Color string     `json:"color"` // token: green, orange, red
	Hex   string     `json:"hex"`
}

// ClassifyAlert derives the alert level from temperature (°C) and wind speed (km/h):
//
//	temperature > 35 or windSpeed > 80  Critical   red
//	temperature > 30 or windSpeed > 50  Attention  orange
//	otherwise                           Normal     green
func ClassifyAlert(temperature, windSpeed float64) Alert {
	switch {
	case temperature > CriticalTemperature || windSpeed > CriticalWindSpeed:
		return Alert{Level: AlertCritical, Color: "red", Hex: "#ef4444"}
	case temperature > AttentionTemperature || windSpeed > AttentionWindSpeed:
		return Alert{Level: AlertAttention, Color: "orange", Hex: "#f59e0b"}
	default:
		return Alert{Level: AlertNormal, Color: "green", Hex: "#10b981"}
	}
}

// Severity returns 0, 1 or 2 for Normal, Attention and Critical. Unknown levels map to -1.
func (l AlertLevel) Severity() int {
	switch l {
	case AlertNormal:
		return 0
	case AlertAttention:
		return 1
	case AlertCritical:
		return 2
	default:
		return -1
	}
}

// Alert classifies the record's current readings.
func (r SensorRecord) Alert() Alert {
	return ClassifyAlert(r.Readings.Temperature, r.Readings.WindSpeed)
}
