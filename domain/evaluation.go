package domain

import (
	"context"
	"io"
	"time"
)

// PairStatus is the outcome of one positional function pair
type PairStatus string

const (
	PairStatusScored  PairStatus = "scored"
	PairStatusSkipped PairStatus = "skipped"
	PairStatusFailed  PairStatus = "failed"
)

// FileStatus is the outcome of one reference/candidate file pair
type FileStatus string

const (
	FileStatusEvaluated FileStatus = "evaluated"
	FileStatusRejected  FileStatus = "rejected"
)

// FilePair names a reference corpus and the candidate corpus aligned with it
type FilePair struct {
	Name          string `json:"name" yaml:"name"`
	ReferencePath string `json:"reference_path" yaml:"reference_path"`
	CandidatePath string `json:"candidate_path" yaml:"candidate_path"`
}

// PairResult records what happened at one position of a corpus pair.
// Failed pairs carry a zero report and still count as attempted.
type PairResult struct {
	Index     int              `json:"index" yaml:"index" csv:"index"`
	Status    PairStatus       `json:"status" yaml:"status" csv:"status"`
	Report    SimilarityReport `json:"report" yaml:"report" csv:"report"`
	ErrorCode string           `json:"error_code,omitempty" yaml:"error_code,omitempty" csv:"error_code"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty" csv:"error"`
}

// Attempted reports whether the pair contributes to the file average
func (p PairResult) Attempted() bool {
	return p.Status == PairStatusScored || p.Status == PairStatusFailed
}

// FileReport is the file-level result: the per-field mean over attempted pairs
type FileReport struct {
	Name          string           `json:"name" yaml:"name"`
	ReferencePath string           `json:"reference_path,omitempty" yaml:"reference_path,omitempty"`
	CandidatePath string           `json:"candidate_path,omitempty" yaml:"candidate_path,omitempty"`
	Status        FileStatus       `json:"status" yaml:"status"`
	RejectCode    string           `json:"reject_code,omitempty" yaml:"reject_code,omitempty"`
	RejectReason  string           `json:"reject_reason,omitempty" yaml:"reject_reason,omitempty"`
	Average       SimilarityReport `json:"average" yaml:"average"`
	Attempted     int              `json:"attempted" yaml:"attempted"`
	Skipped       int              `json:"skipped" yaml:"skipped"`
	Failed        int              `json:"failed" yaml:"failed"`
	Pairs         []PairResult     `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// Evaluated reports whether the file pair produced scores
func (f FileReport) Evaluated() bool {
	return f.Status == FileStatusEvaluated
}

// EvaluationSummary aggregates all file reports of a run
type EvaluationSummary struct {
	TotalFiles     int              `json:"total_files" yaml:"total_files"`
	EvaluatedFiles int              `json:"evaluated_files" yaml:"evaluated_files"`
	RejectedFiles  int              `json:"rejected_files" yaml:"rejected_files"`
	Attempted      int              `json:"attempted" yaml:"attempted"`
	Skipped        int              `json:"skipped" yaml:"skipped"`
	Failed         int              `json:"failed" yaml:"failed"`
	Average        SimilarityReport `json:"average" yaml:"average"`
}

// Summarize builds the run summary. The average is the mean of the file
// averages over evaluated files that attempted at least one pair.
func Summarize(files []FileReport) EvaluationSummary {
	summary := EvaluationSummary{TotalFiles: len(files)}
	var averages []SimilarityReport
	for _, f := range files {
		if !f.Evaluated() {
			summary.RejectedFiles++
			continue
		}
		summary.EvaluatedFiles++
		summary.Attempted += f.Attempted
		summary.Skipped += f.Skipped
		summary.Failed += f.Failed
		if f.Attempted > 0 {
			averages = append(averages, f.Average)
		}
	}
	summary.Average = MeanReport(averages)
	return summary
}

// EvaluationRequest represents a request to evaluate reference/candidate corpora
type EvaluationRequest struct {
	// Either a corpus root to discover file pairs under, or explicit pairs.
	Root  string     `json:"root,omitempty"`
	Pairs []FilePair `json:"pairs,omitempty"`

	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"output_path,omitempty"`
	ShowPairs    bool         `json:"show_pairs"`
	NoProgress   bool         `json:"no_progress"`

	ConfigPath string `json:"config_path,omitempty"`
}

// Validate validates an evaluation request
func (req *EvaluationRequest) Validate() error {
	if req.Root == "" && len(req.Pairs) == 0 {
		return NewValidationError("either a corpus root or file pairs must be given")
	}
	for _, p := range req.Pairs {
		if p.ReferencePath == "" || p.CandidatePath == "" {
			return NewValidationError("file pairs need both a reference and a candidate path")
		}
	}
	return nil
}

// EvaluationResponse is the result of one evaluation run
type EvaluationResponse struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Files       []FileReport      `json:"files" yaml:"files"`
	Summary     EvaluationSummary `json:"summary" yaml:"summary"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Duration    int64             `json:"duration_ms" yaml:"duration_ms"`
	Version     string            `json:"version" yaml:"version"`
}

// PairDetail explains one comparison dimension by dimension
type PairDetail struct {
	Report             SimilarityReport `json:"report" yaml:"report"`
	ReferenceSignature Signature        `json:"reference_signature" yaml:"reference_signature"`
	CandidateSignature Signature        `json:"candidate_signature" yaml:"candidate_signature"`
	Interface          InterfaceScore   `json:"interface" yaml:"interface"`
	ReferenceHalstead  HalsteadMetrics  `json:"reference_halstead" yaml:"reference_halstead"`
	CandidateHalstead  HalsteadMetrics  `json:"candidate_halstead" yaml:"candidate_halstead"`
	ReferenceControl   []string         `json:"reference_control_flow" yaml:"reference_control_flow"`
	CandidateControl   []string         `json:"candidate_control_flow" yaml:"candidate_control_flow"`
	ReferenceTokens    []string         `json:"reference_tokens,omitempty" yaml:"reference_tokens,omitempty"`
	CandidateTokens    []string         `json:"candidate_tokens,omitempty" yaml:"candidate_tokens,omitempty"`
	ReferenceStructure string           `json:"reference_structure,omitempty" yaml:"reference_structure,omitempty"`
	CandidateStructure string           `json:"candidate_structure,omitempty" yaml:"candidate_structure,omitempty"`
	StructureAlgorithm string           `json:"structure_algorithm" yaml:"structure_algorithm"`
	ReferenceHasErrors bool             `json:"reference_has_errors" yaml:"reference_has_errors"`
	CandidateHasErrors bool             `json:"candidate_has_errors" yaml:"candidate_has_errors"`
}

// CompareRequest asks for a single reference/candidate function comparison
type CompareRequest struct {
	Reference string `json:"reference" binding:"required"`
	Candidate string `json:"candidate" binding:"required"`

	// ReferencePath and CandidatePath label the inputs in output when they came from files.
	ReferencePath string `json:"-"`
	CandidatePath string `json:"-"`

	Explain      bool         `json:"explain"`
	OutputFormat OutputFormat `json:"-"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"-"`
}

// Validate validates a compare request
func (req *CompareRequest) Validate() error {
	if req.Reference == "" || req.Candidate == "" {
		return NewValidationError("both reference and candidate code are required")
	}
	return nil
}

// CompareResponse is the result of a single comparison
type CompareResponse struct {
	ReferencePath string           `json:"reference_path,omitempty" yaml:"reference_path,omitempty"`
	CandidatePath string           `json:"candidate_path,omitempty" yaml:"candidate_path,omitempty"`
	Report        SimilarityReport `json:"report" yaml:"report"`
	Detail        *PairDetail      `json:"detail,omitempty" yaml:"detail,omitempty"`
	Diff          string           `json:"diff,omitempty" yaml:"diff,omitempty"`
	Version       string           `json:"version" yaml:"version"`
}

// PairScorer scores one reference/candidate snippet pair
type PairScorer interface {
	// ComparePair returns the full report, or an error naming the failing stage.
	ComparePair(ctx context.Context, reference, candidate string) (SimilarityReport, error)

	// ExplainPair returns the report together with every intermediate representation.
	ExplainPair(ctx context.Context, reference, candidate string) (*PairDetail, error)
}

// CorpusReader loads delimiter-separated corpora
type CorpusReader interface {
	// ReadCorpus reads a corpus file and splits it into snippets
	ReadCorpus(path string) ([]string, error)

	// SplitCorpus splits corpus text into trimmed, non-empty snippets
	SplitCorpus(content string) []string
}

// CorpusDiscoverer finds reference/candidate file pairs under a directory
type CorpusDiscoverer interface {
	Discover(root string) ([]FilePair, error)
}

// EvaluationService evaluates corpora pairwise
type EvaluationService interface {
	// Evaluate runs every file pair of the request
	Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error)

	// EvaluateFilePair reads and evaluates one file pair. Errors are reported in the FileReport.
	EvaluateFilePair(ctx context.Context, pair FilePair) FileReport

	// EvaluateCorpora evaluates two in-memory snippet lists
	EvaluateCorpora(ctx context.Context, name string, reference, candidate []string) FileReport
}

// ReportCache stores pair reports keyed by a content hash
type ReportCache interface {
	Get(ctx context.Context, key string) (SimilarityReport, bool, error)
	Set(ctx context.Context, key string, report SimilarityReport) error
}

// RunStore persists evaluation runs
type RunStore interface {
	Save(ctx context.Context, run *EvaluationResponse) (string, error)
	Get(ctx context.Context, id string) (*EvaluationResponse, error)
}

// EvaluationOutputFormatter formats evaluation results
type EvaluationOutputFormatter interface {
	Write(response *EvaluationResponse, format OutputFormat, writer io.Writer) error
}

// CompareOutputFormatter formats single comparison results
type CompareOutputFormatter interface {
	Write(response *CompareResponse, format OutputFormat, writer io.Writer) error
}
