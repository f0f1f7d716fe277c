package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ludo-technologies/simeval/internal/logging"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK        = 0
	exitError     = 1
	exitThreshold = 2
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configFile string
	verbose    bool
	quiet      bool
	logFormat  string
}

// thresholdError reports a --fail-under violation
type thresholdError struct {
	score     float64
	threshold float64
}

func (e *thresholdError) Error() string {
	return fmt.Sprintf("overall similarity %.4f is below --fail-under %.4f", e.score, e.threshold)
}

// NewRootCmd builds the simeval command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "simeval",
		Short: "Multi-metric similarity evaluation for C functions",
		Long: `simeval scores how similar a candidate C function is to a reference
function, combining five dimensions into one weighted score:

  • interface     return type, name and parameter list
  • structure     canonicalized syntax tree shape
  • control flow  sequence of control constructs
  • halstead      Halstead volume
  • token edit    normalized token sequence edit distance

Corpora are files of functions separated by a delimiter line and are
compared position by position.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if opts.verbose {
				level = "debug"
			}
			if opts.quiet {
				level = "warn"
			}
			logging.Init(logging.Options{Level: level, Format: opts.logFormat, Writer: cmd.ErrOrStderr()})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "Configuration file path (.toml, .yaml or .json)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Only log warnings and errors")
	pf.StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "Log format (console, json)")

	rootCmd.AddCommand(NewEvaluateCmd(opts))
	rootCmd.AddCommand(NewCompareCmd(opts))
	rootCmd.AddCommand(NewServeCmd(opts))
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var te *thresholdError
	if errors.As(err, &te) {
		return exitThreshold
	}
	return exitError
}

func main() {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
