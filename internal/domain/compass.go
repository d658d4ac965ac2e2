package domain

import "math"

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// RosePoints are the eight wind rose buckets in clockwise order from north.
var RosePoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CardinalDirection converts degrees to a 16-point compass label.
func CardinalDirection(deg float64) string {
	i := int(math.Round(WrapDegrees(deg)/22.5)) % 16
	return compassPoints[i]
}

// rosePoint returns the index into RosePoints for an angle.
func rosePoint(deg float64) int {
	return int(math.Round(WrapDegrees(deg)/45)) % 8
}

// HumidityComfort describes a relative humidity band.
type HumidityComfort string

const (
	HumidityDry         HumidityComfort = "Dry"
	HumidityComfortable HumidityComfort = "Comfortable"
	HumidityHumid       HumidityComfort = "Humid"
	HumidityVeryHumid   HumidityComfort = "VeryHumid"
)

// ComfortFor classifies relative humidity: <30 dry, <60 comfortable, <80 humid.
func ComfortFor(humidity float64) HumidityComfort {
	switch {
	case humidity < 30:
		return HumidityDry
	case humidity < 60:
		return HumidityComfortable
	case humidity < 80:
		return HumidityHumid
	default:
		return HumidityVeryHumid
	}
}
