package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Alert classification",
}

var alertClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a temperature and wind speed",
	Long:  `Ask the service which alert level a temperature (°C) and wind speed (km/h) fall into.`,
	Args:  cobra.NoArgs,
	RunE:  runAlertClassify,
}

var (
	classifyTemperature float64
	classifyWindSpeed   float64
)

func init() {
	rootCmd.AddCommand(alertCmd)
	alertCmd.AddCommand(alertClassifyCmd)

	alertClassifyCmd.Flags().Float64Var(&classifyTemperature, "temperature", 0, "temperature in °C")
	alertClassifyCmd.Flags().Float64Var(&classifyWindSpeed, "wind-speed", 0, "wind speed in km/h")
	_ = alertClassifyCmd.MarkFlagRequired("temperature")
	_ = alertClassifyCmd.MarkFlagRequired("wind-speed")
}

func runAlertClassify(cmd *cobra.Command, _ []string) error {
	a, err := newClient().ClassifyAlert(cmd.Context(), classifyTemperature, classifyWindSpeed)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), a)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s %s)\n", a.Level, a.Color, a.Hex)
	return nil
}
