package domain

import "math"

// WindBucket aggregates the sensors whose wind falls in one rose direction.
type WindBucket struct {
	Direction    string   `json:"direction"`
	Count        int      `json:"count"`
	AverageSpeed float64  `json:"averageSpeed"`
	Sensors      []string `json:"sensors"`
}

// WindRose groups records into the eight RosePoints buckets. Every bucket is
// present, in RosePoints order, even when empty.
func WindRose(records []SensorRecord) []WindBucket {
	buckets := make([]WindBucket, len(RosePoints))
	for i, p := range RosePoints {
		buckets[i] = WindBucket{Direction: p, Sensors: []string{}}
	}

	for _, r := range records {
		b := &buckets[rosePoint(r.Readings.WindDirection)]
		b.Count++
		b.AverageSpeed += r.Readings.WindSpeed
		b.Sensors = append(b.Sensors, r.Name+" ("+r.Location.Description+")")
	}

	for i := range buckets {
		if buckets[i].Count > 0 {
			buckets[i].AverageSpeed /= float64(buckets[i].Count)
		}
	}
	return buckets
}

// Stat is the min/max/mean of one metric across sensors.
type Stat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary is the cross-sensor analytics view.
type Summary struct {
	Count       int                `json:"count"`
	Temperature Stat               `json:"temperature"`
	Humidity    Stat               `json:"humidity"`
	Pressure    Stat               `json:"pressure"`
	WindSpeed   Stat               `json:"windSpeed"`
	Alerts      map[AlertLevel]int `json:"alerts"`
}

// Summarize computes per-metric statistics and alert counts. An empty input
// yields zero stats and zero counts for every level.
func Summarize(records []SensorRecord) Summary {
	s := Summary{Count: len(records), Alerts: make(map[AlertLevel]int, len(AlertLevels))}
	for _, l := range AlertLevels {
		s.Alerts[l] = 0
	}
	if len(records) == 0 {
		return s
	}

	pick := func(f func(Readings) float64) Stat {
		st := Stat{Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, r := range records {
			v := f(r.Readings)
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
			sum += v
		}
		st.Mean = sum / float64(len(records))
		return st
	}

	s.Temperature = pick(func(r Readings) float64 { return r.Temperature })
	s.Humidity = pick(func(r Readings) float64 { return r.Humidity })
	s.Pressure = pick(func(r Readings) float64 { return r.Pressure })
	s.WindSpeed = pick(func(r Readings) float64 { return r.WindSpeed })

	for _, r := range records {
		s.Alerts[r.Alert().Level]++
	}
	return s
}
