package fixture

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/google/go-cmp/cmp"
)

const epsilon = 1e-9

// Phase collects the failures of one validation pass.
type Phase struct {
	Name   string
	Errors []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase found no problems.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Check runs every validation phase over f. The reproducibility phase
// regenerates the fixture from its own parameters.
func Check(f Fixture) []*Phase {
	return []*Phase{
		checkStructure(f),
		checkBounds(f),
		checkDerived(f),
		checkDrift(f),
		checkReproducible(f),
	}
}

func checkStructure(f Fixture) *Phase {
	p := &Phase{Name: "structure"}
	if len(f.Ticks) == 0 {
		p.errorf("fixture has no ticks")
		return p
	}

	seedIDs := make([]string, 0, len(f.Ticks[0].Events))
	seen := map[string]bool{}
	for _, ev := range f.Ticks[0].Events {
		if ev.SensorID == "" {
			p.errorf("tick 0: event with empty sensor id")
		}
		if seen[ev.SensorID] {
			p.errorf("tick 0: duplicate sensor id %q", ev.SensorID)
		}
		seen[ev.SensorID] = true
		seedIDs = append(seedIDs, ev.SensorID)
	}

	interval := time.Duration(f.Interval)
	for i, tk := range f.Ticks {
		if tk.Index != i {
			p.errorf("tick %d: index is %d", i, tk.Index)
		}
		if want := f.Start.Add(time.Duration(i) * interval); !tk.At.Equal(want) {
			p.errorf("tick %d: at %s, want %s", i, tk.At.Format(time.RFC3339Nano), want.Format(time.RFC3339Nano))
		}
		if len(tk.Events) != len(seedIDs) {
			p.errorf("tick %d: %d events, want %d", i, len(tk.Events), len(seedIDs))
			continue
		}
		for j, ev := range tk.Events {
			if ev.SensorID != seedIDs[j] {
				p.errorf("tick %d: event %d is %q, want %q (order must stay stable)", i, j, ev.SensorID, seedIDs[j])
			}
		}
	}
	return p
}

func checkBounds(f Fixture) *Phase {
	p := &Phase{Name: "bounds"}
	for _, tk := range f.Ticks {
		for _, ev := range tk.Events {
			r := ev.Readings
			inRange := func(name string, v, lo, hi float64) {
				if math.IsNaN(v) || v < lo || v > hi {
					p.errorf("tick %d %s: %s %g outside [%g, %g]", tk.Index, ev.SensorID, name, v, lo, hi)
				}
			}
			inRange("temperature", r.Temperature, domain.MinTemperature, domain.MaxTemperature)
			inRange("humidity", r.Humidity, domain.MinHumidity, domain.MaxHumidity)
			inRange("pressure", r.Pressure, domain.MinPressure, domain.MaxPressure)
			inRange("windSpeed", r.WindSpeed, domain.MinWindSpeed, domain.MaxWindSpeed)
			if r.WindDirection < 0 || r.WindDirection >= 360 {
				p.errorf("tick %d %s: windDirection %g outside [0, 360)", tk.Index, ev.SensorID, r.WindDirection)
			}
			if r.LastUpdated.IsZero() {
				p.errorf("tick %d %s: lastUpdated is zero", tk.Index, ev.SensorID)
			}
		}
	}
	return p
}

func checkDerived(f Fixture) *Phase {
	p := &Phase{Name: "derived fields"}
	for _, tk := range f.Ticks {
		for _, ev := range tk.Events {
			r := ev.Readings
			if want := domain.ClassifyAlert(r.Temperature, r.WindSpeed); ev.Alert != want {
				p.errorf("tick %d %s: alert %+v, want %+v", tk.Index, ev.SensorID, ev.Alert, want)
			}
			if want := domain.CardinalDirection(r.WindDirection); ev.Cardinal != want {
				p.errorf("tick %d %s: cardinal %s, want %s", tk.Index, ev.SensorID, ev.Cardinal, want)
			}
			if !ev.EmittedAt.Equal(tk.At) {
				p.errorf("tick %d %s: emittedAt %s, want %s", tk.Index, ev.SensorID, ev.EmittedAt, tk.At)
			}
		}
	}
	return p
}

func checkDrift(f Fixture) *Phase {
	p := &Phase{Name: "drift"}
	spans := f.Spans.domain()

	for i := 1; i < len(f.Ticks); i++ {
		prev, cur := f.Ticks[i-1], f.Ticks[i]
		if len(prev.Events) != len(cur.Events) {
			continue // reported by structure
		}
		for j := range cur.Events {
			a, b := prev.Events[j].Readings, cur.Events[j].Readings
			id := cur.Events[j].SensorID

			within := func(name string, d, span float64) {
				if math.Abs(d) > span/2+epsilon {
					p.errorf("tick %d %s: %s moved %g, limit %g", i, id, name, d, span/2)
				}
			}
			within("temperature", b.Temperature-a.Temperature, spans.Temperature)
			within("humidity", b.Humidity-a.Humidity, spans.Humidity)
			within("pressure", b.Pressure-a.Pressure, spans.Pressure)
			within("windSpeed", b.WindSpeed-a.WindSpeed, spans.WindSpeed)
			within("windDirection", angularDelta(a.WindDirection, b.WindDirection), spans.WindDirection)

			if !b.LastUpdated.After(a.LastUpdated) {
				p.errorf("tick %d %s: lastUpdated %s not after %s", i, id, b.LastUpdated, a.LastUpdated)
			}
		}
	}
	return p
}

// angularDelta is the signed shortest rotation from a to b in degrees.
func angularDelta(a, b float64) float64 {
	return math.Mod(b-a+540, 360) - 180
}

func checkReproducible(f Fixture) *Phase {
	p := &Phase{Name: "reproducibility"}
	if len(f.Ticks) == 0 {
		p.errorf("fixture has no ticks")
		return p
	}
	regen, err := Generate(f.Seed, len(f.Ticks)-1, time.Duration(f.Interval), f.Start)
	if err != nil {
		p.errorf("regenerate: %v", err)
		return p
	}
	if diff := cmp.Diff(regen, f); diff != "" {
		p.errorf("fixture differs from a regeneration with seed %d (-regenerated +fixture):\n%s", f.Seed, diff)
	}
	return p
}
