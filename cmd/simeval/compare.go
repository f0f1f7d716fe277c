package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/ludo-technologies/simeval/service"
	"github.com/spf13/cobra"
)

// CompareCommand compares one reference function with one candidate
type CompareCommand struct {
	global  *globalOptions
	flags   analysisFlags
	explain bool
	corpus  bool
}

// NewCompareCommand creates a new compare command
func NewCompareCommand(global *globalOptions) *CompareCommand {
	return &CompareCommand{global: global}
}

// CreateCobraCommand creates the cobra command for pair comparison
func (c *CompareCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <reference-file> <candidate-file>",
		Short: "Compare a reference function with a candidate function",
		Long: `Compare a reference C function with a candidate C function.

Each file holds a single function. The report lists the five dimension
scores and the weighted overall score. --explain adds the extracted
signatures, Halstead counts, control-flow sequences and a token diff.

With --corpus both files are treated as delimiter-separated corpora and
compared position by position, as evaluate does for one file pair.

Examples:
  # Compare two functions
  simeval compare ref.c cand.c

  # Show what each comparator saw
  simeval compare --explain ref.c cand.c

  # Compare two corpora and list every pair
  simeval compare --corpus ref.txt cand.txt`,
		Args: cobra.ExactArgs(2),
		RunE: c.runCompare,
	}

	c.flags.register(cmd)
	cmd.Flags().BoolVar(&c.explain, "explain", false, "Include intermediate representations and a token diff")
	cmd.Flags().BoolVar(&c.corpus, "corpus", false, "Treat both files as corpora")

	return cmd
}

func (c *CompareCommand) runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(c.global.configFile, args[0])
	if err != nil {
		return err
	}
	if err := c.flags.apply(cmd, cfg); err != nil {
		return err
	}
	if c.corpus {
		return c.compareCorpora(cmd, cfg, args[0], args[1])
	}

	reference, err := readSnippet(args[0])
	if err != nil {
		return err
	}
	candidate, err := readSnippet(args[1])
	if err != nil {
		return err
	}

	format, outputPath, err := resolveOutput(cfg, &c.flags, "compare")
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	useCase, err := app.NewCompareUseCaseBuilder().
		WithScorer(engine).
		WithFormatter(service.NewCompareFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		WithDiffer(service.TokenDiff).
		WithVersion(version.Short()).
		Build()
	if err != nil {
		return err
	}

	response, err := useCase.Execute(cmd.Context(), domain.CompareRequest{
		Reference:     reference,
		Candidate:     candidate,
		ReferencePath: args[0],
		CandidatePath: args[1],
		Explain:       c.explain,
		OutputFormat:  format,
		OutputWriter:  cmd.OutOrStdout(),
		OutputPath:    outputPath,
	})
	if err != nil {
		return err
	}
	return c.flags.checkThreshold(cmd, response.Report.Overall)
}

func (c *CompareCommand) compareCorpora(cmd *cobra.Command, cfg *config.Config, referencePath, candidatePath string) error {
	format, outputPath, err := resolveOutput(cfg, &c.flags, "compare")
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	svc, cleanup := buildEvaluationService(cmd.Context(), cfg, engine, false)
	defer cleanup()

	useCase, err := app.NewEvaluateUseCaseBuilder().
		WithService(svc).
		WithFormatter(service.NewEvaluationFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}

	response, err := useCase.Execute(cmd.Context(), domain.EvaluationRequest{
		Pairs: []domain.FilePair{{
			Name:          filepath.Base(referencePath),
			ReferencePath: referencePath,
			CandidatePath: candidatePath,
		}},
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		OutputPath:   outputPath,
		ShowPairs:    true,
		NoProgress:   true,
	})
	if err != nil {
		return err
	}
	if response.Summary.RejectedFiles > 0 {
		f := response.Files[0]
		return domain.NewDomainError(f.RejectCode, f.RejectReason, nil)
	}
	return c.flags.checkThreshold(cmd, response.Summary.Average.Overall)
}

// readSnippet reads a single-function file
func readSnippet(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.NewInputNotFoundError(path, err)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// NewCompareCmd creates and returns the compare cobra command
func NewCompareCmd(global *globalOptions) *cobra.Command {
	return NewCompareCommand(global).CreateCobraCommand()
}
