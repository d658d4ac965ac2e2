package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Cross-sensor analytics",
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show min/max/mean per metric and alert counts",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsSummary,
}

var analyticsWindCmd = &cobra.Command{
	Use:   "wind",
	Short: "Show the eight-direction wind rose",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsWind,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsSummaryCmd)
	analyticsCmd.AddCommand(analyticsWindCmd)
}

func runAnalyticsSummary(cmd *cobra.Command, _ []string) error {
	s, err := newClient().Summary(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, s)
	}
	fmt.Fprintf(out, "%d sensors\n\n", s.Count)
	if err := table(out, "METRIC\tMIN\tMAX\tMEAN", func(tw io.Writer) {
		for _, m := range []struct {
			name string
			st   domain.Stat
		}{
			{"temperature", s.Temperature},
			{"humidity", s.Humidity},
			{"pressure", s.Pressure},
			{"wind speed", s.WindSpeed},
		} {
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\n", m.name, m.st.Min, m.st.Max, m.st.Mean)
		}
	}); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, l := range domain.AlertLevels {
		fmt.Fprintf(out, "%-10s %d\n", l, s.Alerts[l])
	}
	return nil
}

func runAnalyticsWind(cmd *cobra.Command, _ []string) error {
	rose, err := newClient().WindRose(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, rose)
	}
	return table(out, "DIR\tCOUNT\tAVG km/h\tSENSORS", func(tw io.Writer) {
		for _, b := range rose {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%s\n", b.Direction, b.Count, b.AverageSpeed, strings.Join(b.Sensors, ", "))
		}
	})
}
