// Command validate checks a sensor tick fixture written by genmock against
// the data-model invariants: stable ids and order, reading bounds, derived
// alert and cardinal fields, bounded drift between ticks, and reproducibility
// from the recorded seed.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/sensor_ticks.json
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/fixture"
)

func main() {
	path := flag.String("fixture", "", "path to the JSON fixture written by genmock")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Sensor Fixture Validation ===")
	fmt.Println()

	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := fixture.Check(f)

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.Passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.Errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.Name, status)
	}

	sensors := 0
	if len(f.Ticks) > 0 {
		sensors = len(f.Ticks[0].Events)
	}
	fmt.Println()
	fmt.Printf("Fixture: %d ticks, %d sensors, seed %d, interval %s\n",
		len(f.Ticks), sensors, f.Seed, time.Duration(f.Interval))

	// Print detailed errors.
	for _, p := range phases {
		if p.Passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.Name)
		for i, e := range p.Errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
