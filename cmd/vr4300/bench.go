package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vr4300sim/benchmarks"
	"github.com/sarchlab/vr4300sim/timing/core"
)

func newBenchCmd() *cobra.Command {
	var (
		csvOutput    bool
		jsonOutput   bool
		quick        bool
		noCrossCheck bool
		configPath   string
		maxCycles    uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the pipeline microbenchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := benchmarks.DefaultConfig()
			config.Output = cmd.OutOrStdout()
			config.CrossCheck = !noCrossCheck

			coreConfig, err := loadBenchConfig(cmd, configPath, maxCycles, config.Core)
			if err != nil {
				return err
			}
			config.Core = coreConfig

			harness := benchmarks.NewHarness(config)
			if quick {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results := harness.RunAll()

			switch {
			case jsonOutput:
				if err := harness.PrintJSON(results); err != nil {
					return err
				}
			case csvOutput:
				harness.PrintCSV(results)
			default:
				harness.PrintResults(results)
			}

			if failed := benchmarks.Summarize(results).Failed; failed > 0 {
				return fmt.Errorf("%d of %d benchmarks failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Output results in CSV format")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	cmd.Flags().BoolVar(&quick, "quick", false, "Run only the core benchmarks")
	cmd.Flags().BoolVar(&noCrossCheck, "no-cross-check", false,
		"Skip comparing against the functional emulator")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to core configuration JSON file")
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", benchmarks.DefaultConfig().Core.MaxCycles,
		"Cycle budget per benchmark; 0 means no limit")

	return cmd
}

// loadBenchConfig reads the config file, if any, over the harness defaults.
// A file that leaves max_cycles unset keeps the harness budget.
func loadBenchConfig(
	cmd *cobra.Command,
	configPath string,
	maxCycles uint64,
	defaults *core.Config,
) (*core.Config, error) {
	config := defaults.Clone()
	if configPath != "" {
		loaded, err := core.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if loaded.MaxCycles == 0 {
			loaded.MaxCycles = defaults.MaxCycles
		}
		config = loaded
	}

	if cmd.Flags().Changed("max-cycles") {
		config.MaxCycles = maxCycles
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	return config, nil
}
