package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/simeval/domain"
)

// DiffFunc renders a diff of two token sequences
type DiffFunc func(reference, candidate []string) string

// CompareUseCase compares one reference function against one candidate
type CompareUseCase struct {
	scorer    domain.PairScorer
	formatter domain.CompareOutputFormatter
	output    domain.ReportWriter
	differ    DiffFunc
	version   string
}

// NewCompareUseCase creates a new compare use case. differ may be nil.
func NewCompareUseCase(
	scorer domain.PairScorer,
	formatter domain.CompareOutputFormatter,
	output domain.ReportWriter,
	differ DiffFunc,
	version string,
) *CompareUseCase {
	return &CompareUseCase{
		scorer:    scorer,
		formatter: formatter,
		output:    output,
		differ:    differ,
		version:   version,
	}
}

// Compare scores the pair without writing anything
func (uc *CompareUseCase) Compare(ctx context.Context, req domain.CompareRequest) (*domain.CompareResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	response := &domain.CompareResponse{
		ReferencePath: req.ReferencePath,
		CandidatePath: req.CandidatePath,
		Version:       uc.version,
	}

	if !req.Explain {
		report, err := uc.scorer.ComparePair(ctx, req.Reference, req.Candidate)
		if err != nil {
			return nil, err
		}
		response.Report = report
		return response, nil
	}

	detail, err := uc.scorer.ExplainPair(ctx, req.Reference, req.Candidate)
	if err != nil {
		return nil, err
	}
	response.Report = detail.Report
	response.Detail = detail
	if uc.differ != nil {
		response.Diff = uc.differ(detail.ReferenceTokens, detail.CandidateTokens)
	}
	return response, nil
}

// Execute compares the pair and writes the result
func (uc *CompareUseCase) Execute(ctx context.Context, req domain.CompareRequest) (*domain.CompareResponse, error) {
	if req.OutputWriter == nil && req.OutputPath == "" {
		return nil, domain.NewInvalidInputError("invalid request", fmt.Errorf("output writer or output path is required"))
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return nil, err
	}

	response, err := uc.Compare(ctx, req)
	if err != nil {
		return nil, err
	}

	err = uc.output.Write(req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}

// CompareUseCaseBuilder provides a builder pattern for creating CompareUseCase
type CompareUseCaseBuilder struct {
	scorer    domain.PairScorer
	formatter domain.CompareOutputFormatter
	output    domain.ReportWriter
	differ    DiffFunc
	version   string
}

// NewCompareUseCaseBuilder creates a new builder
func NewCompareUseCaseBuilder() *CompareUseCaseBuilder {
	return &CompareUseCaseBuilder{}
}

// WithScorer sets the pair scorer
func (b *CompareUseCaseBuilder) WithScorer(scorer domain.PairScorer) *CompareUseCaseBuilder {
	b.scorer = scorer
	return b
}

// WithFormatter sets the output formatter
func (b *CompareUseCaseBuilder) WithFormatter(formatter domain.CompareOutputFormatter) *CompareUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *CompareUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *CompareUseCaseBuilder {
	b.output = output
	return b
}

// WithDiffer enables token diffs in explained comparisons
func (b *CompareUseCaseBuilder) WithDiffer(differ DiffFunc) *CompareUseCaseBuilder {
	b.differ = differ
	return b
}

// WithVersion stamps responses with the tool version
func (b *CompareUseCaseBuilder) WithVersion(version string) *CompareUseCaseBuilder {
	b.version = version
	return b
}

// Build creates the CompareUseCase with the configured dependencies
func (b *CompareUseCaseBuilder) Build() (*CompareUseCase, error) {
	if b.scorer == nil {
		return nil, fmt.Errorf("pair scorer is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	if b.output == nil {
		return nil, fmt.Errorf("report writer is required")
	}
	return NewCompareUseCase(b.scorer, b.formatter, b.output, b.differ, b.version), nil
}
