package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GetExplicitFlags extracts which flags were explicitly set from a cobra command
func GetExplicitFlags(cmd *cobra.Command) map[string]bool {
	explicitFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			explicitFlags[f.Name] = true
		})
	}
	return explicitFlags
}

// analysisFlags are the config overrides shared by evaluate and compare
type analysisFlags struct {
	format             string
	output             string
	workers            int
	structureAlgorithm string
	skipSentinel       string
	delimiter          string
	failUnder          float64
	noProgress         bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", "", "Output format (text, json, yaml, csv)")
	flags.StringVarP(&f.output, "output", "o", "", "Write the report to this file instead of stdout")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Concurrent pair scorers (0 = one per CPU)")
	flags.StringVar(&f.structureAlgorithm, "structure-algorithm", "",
		fmt.Sprintf("Structure comparator (%s, %s)", config.StructureSerialized, config.StructureTreeEdit))
	flags.StringVar(&f.skipSentinel, "skip-sentinel", "", "Corpus entry marking a position with no function")
	flags.StringVar(&f.delimiter, "delimiter", "", "Line separating functions in a corpus file")
	flags.Float64Var(&f.failUnder, "fail-under", 0, "Exit with status 2 when the overall similarity is below this value")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
}

// apply copies explicitly set flags over cfg and revalidates it
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	explicit := GetExplicitFlags(cmd)

	if explicit["format"] {
		cfg.Output.Format = f.format
	}
	if explicit["workers"] {
		cfg.Analysis.Workers = f.workers
	}
	if explicit["structure-algorithm"] {
		cfg.Analysis.StructureAlgorithm = f.structureAlgorithm
	}
	if explicit["skip-sentinel"] {
		cfg.Corpus.SkipSentinel = f.skipSentinel
	}
	if explicit["delimiter"] {
		cfg.Corpus.Delimiter = f.delimiter
	}
	if explicit["fail-under"] && (f.failUnder < 0 || f.failUnder > 1) {
		return fmt.Errorf("--fail-under must be between 0 and 1, got %v", f.failUnder)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// checkThreshold returns a thresholdError when --fail-under was set and missed
func (f *analysisFlags) checkThreshold(cmd *cobra.Command, overall float64) error {
	if !cmd.Flags().Changed("fail-under") {
		return nil
	}
	if overall < f.failUnder {
		return &thresholdError{score: overall, threshold: f.failUnder}
	}
	return nil
}

// loadConfig loads configuration for a command run against target
func loadConfig(configFile, target string) (*config.Config, error) {
	startDir := target
	if startDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		startDir = cwd
	}
	if info, err := os.Stat(startDir); err == nil && !info.IsDir() {
		startDir = filepath.Dir(startDir)
	}

	cfg, err := config.LoadConfig(configFile, startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
