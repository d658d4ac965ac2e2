package domain

// DriftSpans is the width of the symmetric random delta drawn per reading on
// each simulation tick. A span of s yields deltas in [-s/2, +s/2).
type DriftSpans struct {
	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindDirection float64
	WindSpeed     float64
}

// DefaultDriftSpans produces small fluctuations around the current values.
var DefaultDriftSpans = DriftSpans{
	Temperature:   0.5,
	Humidity:      2,
	Pressure:      0.5,
	WindDirection: 10,
	WindSpeed:     1,
}

// Drift builds a full patch that perturbs every reading of r. unit must return
// values in [0,1); each field draws independently. The patch is not clamped;
// ReadingPatch.Merge normalizes it.
func (s DriftSpans) Drift(r Readings, unit func() float64) ReadingPatch {
	delta := func(span float64) float64 { return (unit() - 0.5) * span }
	return ReadingPatch{
		Temperature:   Float(r.Temperature + delta(s.Temperature)),
		Humidity:      Float(r.Humidity + delta(s.Humidity)),
		Pressure:      Float(r.Pressure + delta(s.Pressure)),
		WindDirection: Float(r.WindDirection + delta(s.WindDirection)),
		WindSpeed:     Float(r.WindSpeed + delta(s.WindSpeed)),
	}
}
