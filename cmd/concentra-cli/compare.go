package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axisgrid/concentra/internal/dataset"
	"github.com/axisgrid/concentra/internal/diagnostic/engine"
)

var compareCmd = &cobra.Command{
	Use:   "compare <code-a> <code-b>",
	Short: "Compute the structural diagnostic for a pair of entities",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	datasetURL := viper.GetString("dataset-url")
	if datasetURL == "" {
		return fmt.Errorf("--dataset-url (or CONCENTRA_DATASET_URL) is required")
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
	profileA, ok := cohort.Find(args[0])
	if !ok {
		return fmt.Errorf("unknown entity %q", args[0])
	}
	profileB, ok := cohort.Find(args[1])
	if !ok {
		return fmt.Errorf("unknown entity %q", args[1])
	}

	diagnostic, err := engine.Compute(profileA, profileB, cohort)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(diagnostic)
}
