// Command sensorctl queries a running sensord.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/client"
	"github.com/spf13/cobra"
)

var (
	flagAddr    string
	flagTimeout time.Duration
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "sensorctl",
	Short: "sensorctl - query the sensor telemetry service",
	Long: `sensorctl talks to a running sensord over its HTTP API to list sensors,
classify alerts, and show analytics and forecasts.`,
	SilenceUsage: true,
}

func init() {
	defaultAddr := os.Getenv("SENSORD_ADDR")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", defaultAddr, "sensord base URL (env SENSORD_ADDR)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print raw JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(flagAddr, flagTimeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned in columns.
func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}
