// Command opsplan solves the pricing and facility-location planning models
// described by a YAML configuration and prints the results as tables.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "opsplan",
		Short:        "Operations planning with mathematical programming",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file (OPSPLAN_* environment variables override it)")

	rootCmd.AddCommand(pricingCmd(&configPath))
	rootCmd.AddCommand(facilityCmd(&configPath))
	rootCmd.AddCommand(allCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func pricingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pricing",
		Short: "Solve the pricing model and print prices and demands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, *configPath, stagePricing)
		},
	}
}

func facilityCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "facility",
		Short: "Generate customers, solve the facility-location model and print assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, *configPath, stageFacility)
		},
	}
}

func allCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Solve both models concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, *configPath, stagePricing, stageFacility)
		},
	}
}
