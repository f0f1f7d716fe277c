package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/simeval/domain"
)

// EvaluateUseCase orchestrates corpus evaluation: run, then report
type EvaluateUseCase struct {
	service   domain.EvaluationService
	formatter domain.EvaluationOutputFormatter
	output    domain.ReportWriter
}

// NewEvaluateUseCase creates a new evaluate use case
func NewEvaluateUseCase(
	service domain.EvaluationService,
	formatter domain.EvaluationOutputFormatter,
	output domain.ReportWriter,
) *EvaluateUseCase {
	return &EvaluateUseCase{
		service:   service,
		formatter: formatter,
		output:    output,
	}
}

// Execute evaluates the request and writes the report.
// The response is returned so callers can apply thresholds.
func (uc *EvaluateUseCase) Execute(ctx context.Context, req domain.EvaluationRequest) (*domain.EvaluationResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, err
	}

	response, err := uc.service.Evaluate(ctx, &req)
	if err != nil {
		return nil, err
	}

	err = uc.output.Write(req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}

func (uc *EvaluateUseCase) validateRequest(req domain.EvaluationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return domain.NewInvalidInputError("invalid request", fmt.Errorf("output writer or output path is required"))
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return err
	}
	return nil
}

// EvaluateUseCaseBuilder provides a builder pattern for creating EvaluateUseCase
type EvaluateUseCaseBuilder struct {
	service   domain.EvaluationService
	formatter domain.EvaluationOutputFormatter
	output    domain.ReportWriter
}

// NewEvaluateUseCaseBuilder creates a new builder
func NewEvaluateUseCaseBuilder() *EvaluateUseCaseBuilder {
	return &EvaluateUseCaseBuilder{}
}

// WithService sets the evaluation service
func (b *EvaluateUseCaseBuilder) WithService(service domain.EvaluationService) *EvaluateUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the output formatter
func (b *EvaluateUseCaseBuilder) WithFormatter(formatter domain.EvaluationOutputFormatter) *EvaluateUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *EvaluateUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *EvaluateUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the EvaluateUseCase with the configured dependencies
func (b *EvaluateUseCaseBuilder) Build() (*EvaluateUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("evaluation service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	if b.output == nil {
		return nil, fmt.Errorf("report writer is required")
	}
	return NewEvaluateUseCase(b.service, b.formatter, b.output), nil
}
