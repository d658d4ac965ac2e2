package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show the weather forecast",
	Long:  `Display current conditions and the daily forecast. Without --lat/--lon the service default location is used.`,
	Args:  cobra.NoArgs,
	RunE:  runForecast,
}

var (
	forecastLat float64
	forecastLon float64
)

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().Float64Var(&forecastLat, "lat", 0, "latitude")
	forecastCmd.Flags().Float64Var(&forecastLon, "lon", 0, "longitude")
}

func runForecast(cmd *cobra.Command, _ []string) error {
	var lat, lon *float64
	if cmd.Flags().Changed("lat") {
		lat = &forecastLat
	}
	if cmd.Flags().Changed("lon") {
		lon = &forecastLon
	}

	f, err := newClient().Forecast(cmd.Context(), lat, lon)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, f)
	}

	c := f.Current
	fmt.Fprintf(out, "%.2f, %.2f (%s)\n", f.Latitude, f.Longitude, f.Timezone)
	fmt.Fprintf(out, "now: %s, %.1f °C, %.0f %% humidity, wind %.1f km/h, UV %.1f\n\n",
		f.Condition.Description, c.Temperature, c.Humidity, c.WindSpeed, c.UVIndex)
	return table(out, "DATE\tMIN °C\tMAX °C\tRAIN mm\tWIND km/h\tUV", func(tw io.Writer) {
		for _, d := range f.Daily {
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
				d.Date.Format("Mon 02 Jan"), d.TemperatureMin, d.TemperatureMax, d.Precipitation, d.WindSpeedMax, d.UVIndexMax)
		}
	})
}
