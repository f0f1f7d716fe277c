package main

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/service"
	"github.com/spf13/cobra"
)

// EvaluateCommand evaluates candidate corpora against reference corpora
type EvaluateCommand struct {
	global    *globalOptions
	flags     analysisFlags
	showPairs bool
}

// NewEvaluateCommand creates a new evaluate command
func NewEvaluateCommand(global *globalOptions) *EvaluateCommand {
	return &EvaluateCommand{global: global}
}

// CreateCobraCommand creates the cobra command for corpus evaluation
func (c *EvaluateCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <corpus-root> | evaluate <reference-file> <candidate-file>",
		Short: "Evaluate candidate corpora against reference corpora",
		Long: `Evaluate candidate corpora against reference corpora position by position.

With one directory argument, reference files matching corpus.reference_pattern
are discovered under it and each is paired with the candidate file named by
corpus.candidate_template. With two file arguments, that single pair is
evaluated.

A pair whose reference or candidate is the skip sentinel is skipped. A file
whose corpora hold different numbers of functions is rejected. Pairs that
fail to score count as zero toward the file average.

Exit codes:
  0  evaluation completed
  1  evaluation failed (bad input, configuration or output error)
  2  the overall average is below --fail-under

Examples:
  # Evaluate every corpus pair under ./data
  simeval evaluate ./data

  # Evaluate one pair of corpus files as JSON
  simeval evaluate --format json ref.txt cand.txt

  # Fail a CI job when similarity drops below 0.75
  simeval evaluate --fail-under 0.75 ./data`,
		Args: cobra.RangeArgs(1, 2),
		RunE: c.runEvaluate,
	}

	c.flags.register(cmd)
	cmd.Flags().BoolVar(&c.showPairs, "show-pairs", false, "Include per-pair results in the report")

	return cmd
}

// runEvaluate executes the evaluation
func (c *EvaluateCommand) runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(c.global.configFile, args[0])
	if err != nil {
		return err
	}
	if err := c.flags.apply(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("show-pairs") {
		cfg.Output.ShowPairs = c.showPairs
	}

	req, err := c.buildRequest(cmd, cfg, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	svc, cleanup := buildEvaluationService(ctx, cfg, engine, !req.NoProgress)
	defer cleanup()

	useCase, err := app.NewEvaluateUseCaseBuilder().
		WithService(svc).
		WithFormatter(service.NewEvaluationFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}

	response, err := useCase.Execute(ctx, req)
	if err != nil {
		return err
	}

	return c.flags.checkThreshold(cmd, response.Summary.Average.Overall)
}

func (c *EvaluateCommand) buildRequest(cmd *cobra.Command, cfg *config.Config, args []string) (domain.EvaluationRequest, error) {
	format, outputPath, err := resolveOutput(cfg, &c.flags, "evaluate")
	if err != nil {
		return domain.EvaluationRequest{}, err
	}

	req := domain.EvaluationRequest{
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		OutputPath:   outputPath,
		ShowPairs:    cfg.Output.ShowPairs,
		NoProgress:   c.flags.noProgress,
		ConfigPath:   c.global.configFile,
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return req, domain.NewInputNotFoundError(args[0], err)
	}

	if len(args) == 1 {
		if !info.IsDir() {
			return req, fmt.Errorf("%s is a file: pass a candidate file too, or a corpus directory", args[0])
		}
		req.Root = args[0]
		return req, nil
	}

	req.Pairs = []domain.FilePair{{
		Name:          info.Name(),
		ReferencePath: args[0],
		CandidatePath: args[1],
	}}
	return req, nil
}

// NewEvaluateCmd creates and returns the evaluate cobra command
func NewEvaluateCmd(global *globalOptions) *cobra.Command {
	return NewEvaluateCommand(global).CreateCobraCommand()
}
