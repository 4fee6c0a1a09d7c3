package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "concentra",
	Short: "Concentration-index dashboard core",
	Long: "concentra compares entity concentration profiles across six structural axes\n" +
		"and runs what-if scenario simulations against the simulation service.",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().String("dataset-url", "", "cohort dataset endpoint")
	rootCmd.PersistentFlags().String("simulation-url", "", "simulation service endpoint")
	rootCmd.PersistentFlags().String("api-key", "", "simulation service API key")
	_ = viper.BindPFlag("dataset-url", rootCmd.PersistentFlags().Lookup("dataset-url"))
	_ = viper.BindPFlag("simulation-url", rootCmd.PersistentFlags().Lookup("simulation-url"))
	_ = viper.BindPFlag("api-key", rootCmd.PersistentFlags().Lookup("api-key"))

	rootCmd.AddCommand(compareCmd, simulateCmd, serveCmd)
}

func initViper() {
	// CONCENTRA_DATASET_URL resolves the dataset-url key, and so on.
	viper.SetEnvPrefix("CONCENTRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
