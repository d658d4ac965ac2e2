package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Inspect sensors",
	Long:  `List sensors, show one sensor, or show its stored history.`,
}

var sensorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sensors",
	Long:  `Display every sensor with its current readings and alert level.`,
	Args:  cobra.NoArgs,
	RunE:  runSensorsList,
}

var sensorsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one sensor",
	Long:  `Display a single sensor with its derived classifications.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSensorsGet,
}

var sensorsHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show a sensor's stored readings",
	Long:  `Display stored readings for a sensor. Requires history to be enabled on the service.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSensorsHistory,
}

var (
	historyDays  int
	historyLimit int
)

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.AddCommand(sensorsListCmd)
	sensorsCmd.AddCommand(sensorsGetCmd)
	sensorsCmd.AddCommand(sensorsHistoryCmd)

	sensorsHistoryCmd.Flags().IntVar(&historyDays, "days", 0, "window in days (server default when 0)")
	sensorsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum rows (server default when 0)")
}

func runSensorsList(cmd *cobra.Command, _ []string) error {
	views, err := newClient().ListSensors(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, views)
	}
	return table(out, "ID\tNAME\tTEMP °C\tHUM %\tPRESS hPa\tWIND km/h\tDIR\tALERT", func(tw io.Writer) {
		for _, v := range views {
			r := v.Readings
			fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.0f\t%.1f\t%.1f\t%s\t%s\n",
				v.ID, v.Name, r.Temperature, r.Humidity, r.Pressure, r.WindSpeed, v.Cardinal, v.Alert.Level)
		}
	})
}

func runSensorsGet(cmd *cobra.Command, args []string) error {
	v, err := newClient().GetSensor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, v)
	}
	r := v.Readings
	fmt.Fprintf(out, "%s  %s\n", v.ID, v.Name)
	fmt.Fprintf(out, "  location     %s (%.4f, %.4f)\n", v.Location.Description, v.Location.Latitude, v.Location.Longitude)
	fmt.Fprintf(out, "  temperature  %.1f °C\n", r.Temperature)
	fmt.Fprintf(out, "  humidity     %.0f %% (%s)\n", r.Humidity, v.HumidityComfort)
	fmt.Fprintf(out, "  pressure     %.1f hPa\n", r.Pressure)
	fmt.Fprintf(out, "  wind         %.1f km/h from %s (%.0f°)\n", r.WindSpeed, v.Cardinal, r.WindDirection)
	fmt.Fprintf(out, "  alert        %s\n", v.Alert.Level)
	fmt.Fprintf(out, "  updated      %s\n", r.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runSensorsHistory(cmd *cobra.Command, args []string) error {
	h, err := newClient().History(cmd.Context(), args[0], historyDays, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, h)
	}
	fmt.Fprintf(out, "%s  %s  (%d readings)\n", h.SensorID, h.SensorName, len(h.History))
	return table(out, "TIME\tTEMP °C\tHUM %\tPRESS hPa\tWIND km/h\tDIR °", func(tw io.Writer) {
		for _, p := range h.History {
			fmt.Fprintf(tw, "%s\t%.1f\t%.0f\t%.1f\t%.1f\t%.0f\n",
				p.Timestamp.Format("2006-01-02 15:04:05"), p.Temperature, p.Humidity, p.Pressure, p.WindSpeed, p.WindDirection)
		}
	})
}
