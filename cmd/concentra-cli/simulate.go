package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axisgrid/concentra/internal/dataset"
	"github.com/axisgrid/concentra/internal/scenario/payload"
	"github.com/axisgrid/concentra/internal/scenario/schema"
	"github.com/axisgrid/concentra/internal/scenario/transport"
)

var simulateAdjust []string

var simulateCmd = &cobra.Command{
	Use:   "simulate <code>",
	Short: "Run one what-if simulation for an entity",
	Long: "Run one what-if simulation for an entity, applying per-axis adjustments\n" +
		"given as --adjust axis=value pairs, e.g. --adjust energy=-0.15.",
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringArrayVar(&simulateAdjust, "adjust", nil, "axis adjustment as axis=value (repeatable)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	datasetURL := viper.GetString("dataset-url")
	simulationURL := viper.GetString("simulation-url")
	if datasetURL == "" {
		return fmt.Errorf("--dataset-url (or CONCENTRA_DATASET_URL) is required")
	}
	if simulationURL == "" {
		return fmt.Errorf("--simulation-url (or CONCENTRA_SIMULATION_URL) is required")
	}

	adjustments := make(map[string]float64, len(simulateAdjust))
	for _, pair := range simulateAdjust {
		key, value, err := parseAdjust(pair)
		if err != nil {
			return err
		}
		adjustments[key] = value
	}

	fetcher, err := dataset.NewHTTPFetcher(datasetURL, nil)
	if err != nil {
		return err
	}
	source, err := dataset.NewSource(dataset.SourceConfig{Fetcher: fetcher})
	if err != nil {
		return err
	}
	cohort, err := source.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	req, err := payload.Validate(args[0], adjustments, payload.CodeSet(cohort.Codes()), payload.ModeClient)
	if err != nil {
		return err
	}

	client, err := transport.NewHTTP(transport.Config{
		Endpoint:     simulationURL,
		APIKey:       viper.GetString("api-key"),
		APIKeyHeader: "X-Api-Key",
	})
	if err != nil {
		return err
	}
	raw, err := client.Simulate(cmd.Context(), req)
	if err != nil {
		return err
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	result, err := validator.ValidateResult(raw)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func parseAdjust(pair string) (string, float64, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	raw = strings.TrimSpace(raw)
	if !ok || key == "" || raw == "" {
		return "", 0, fmt.Errorf("invalid --adjust %q (expected axis=value)", pair)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --adjust value in %q: %w", pair, err)
	}
	return key, value, nil
}
