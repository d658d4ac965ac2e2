// Command genmock runs the sensor simulator on a fake clock with a fixed seed
// and writes the resulting telemetry as a JSON fixture. It uses the actual
// store, simulator and transformer so the fixture matches real service output.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/sensor_ticks.json -seed 42 -ticks 100
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the JSON fixture")
	seed := flag.Uint64("seed", 42, "simulator seed (non-zero)")
	ticks := flag.Int("ticks", 100, "number of simulation ticks after the seed state")
	interval := flag.Duration("interval", 10*time.Second, "simulated time between ticks")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	f, err := fixture.Generate(*seed, *ticks, *interval, fixture.DefaultStart)
	if err != nil {
		return fmt.Errorf("generate fixture: %w", err)
	}

	if err := fixture.Write(*out, f); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s (%d ticks, seed %d)", *out, len(f.Ticks), *seed)

	printStats(f)
	return nil
}

// printStats reports values handy for updating test assertions.
func printStats(f fixture.Fixture) {
	last := f.Ticks[len(f.Ticks)-1]
	records := make([]domain.SensorRecord, 0, len(last.Events))
	for _, ev := range last.Events {
		records = append(records, domain.SensorRecord{ID: ev.SensorID, Name: ev.SensorName, Readings: ev.Readings})
	}
	s := domain.Summarize(records)

	fmt.Println("\n=== Stats for the final tick ===")
	fmt.Printf("Tick: %d at %s\n", last.Index, last.At.Format(time.RFC3339))
	fmt.Printf("Temperature: min=%.2f max=%.2f mean=%.2f\n", s.Temperature.Min, s.Temperature.Max, s.Temperature.Mean)
	fmt.Printf("Humidity:    min=%.2f max=%.2f mean=%.2f\n", s.Humidity.Min, s.Humidity.Max, s.Humidity.Mean)
	fmt.Printf("Pressure:    min=%.2f max=%.2f mean=%.2f\n", s.Pressure.Min, s.Pressure.Max, s.Pressure.Mean)
	fmt.Printf("Wind speed:  min=%.2f max=%.2f mean=%.2f\n", s.WindSpeed.Min, s.WindSpeed.Max, s.WindSpeed.Mean)
	fmt.Printf("Alerts: normal=%d, attention=%d, critical=%d\n",
		s.Alerts[domain.AlertNormal], s.Alerts[domain.AlertAttention], s.Alerts[domain.AlertCritical])

	// Alert transitions across the whole run.
	var transitions int
	for i := 1; i < len(f.Ticks); i++ {
		for j, ev := range f.Ticks[i].Events {
			if j < len(f.Ticks[i-1].Events) && f.Ticks[i-1].Events[j].Alert.Level != ev.Alert.Level {
				transitions++
			}
		}
	}
	fmt.Printf("Alert transitions: %d\n", transitions)
}
