package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// SupportedOutputFormats lists every format the formatters accept
var SupportedOutputFormats = []OutputFormat{
	OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV,
}

// ParseOutputFormat validates a user-supplied format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	for _, f := range SupportedOutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", NewUnsupportedFormatError(s)
}

// ReportWriter abstracts writing reports to a destination (file or writer).
//
// Implementations live in the service layer.
type ReportWriter interface {
	// Write writes formatted content using the provided writeFunc.
	// - If outputPath is non-empty, implementations should create/truncate the file
	//   at that path and pass the file as the writer to writeFunc.
	// - If outputPath is empty, implementations should pass the provided writer to writeFunc.
	Write(writer io.Writer, outputPath string, format OutputFormat, writeFunc func(io.Writer) error) error
}

// ProgressTally counts what a ProgressManager saw during one run
type ProgressTally struct {
	Files         int `json:"files"`
	RejectedFiles int `json:"rejected_files"`
	Scored        int `json:"scored"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

// ProgressManager tracks an evaluation run file pair by file pair.
// Methods may be called from several goroutines.
type ProgressManager interface {
	// Start begins a run over the given number of file pairs
	Start(files int)

	// BeginFile announces a file pair holding the given number of function pairs
	BeginFile(name string, pairs int)

	// RecordPair records the outcome of one function pair of a file
	RecordPair(name string, status PairStatus)

	// EndFile marks a file pair as done
	EndFile(name string, status FileStatus)

	// Finish stops tracking and returns the tally of the run
	Finish() ProgressTally

	// SetWriter sets the output writer for the progress bar
	SetWriter(writer io.Writer)

	// IsInteractive returns true if a progress bar is drawn
	IsInteractive() bool
}

// ParallelExecutor manages parallel execution of tasks
type ParallelExecutor interface {
	// Execute runs tasks in parallel with the given configuration
	Execute(ctx context.Context, tasks []ExecutableTask) error

	// SetMaxConcurrency sets the maximum number of concurrent tasks
	SetMaxConcurrency(max int)

	// SetTimeout sets the timeout for all tasks
	SetTimeout(timeout time.Duration)
}

// ExecutableTask represents a task that can be executed in parallel
type ExecutableTask interface {
	// Name returns the name of the task
	Name() string

	// Execute runs the task and returns the result
	Execute(ctx context.Context) (interface{}, error)

	// IsEnabled returns whether the task should be executed
	IsEnabled() bool
}
