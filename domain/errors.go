package domain

import (
	"errors"
	"fmt"
)

// DomainError represents errors in the domain layer
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// Domain error codes
const (
	// Evaluation failures. DegenerateMetric is documented for completeness:
	// comparators resolve degenerate ratios to 1.0 and never return it.
	ErrCodeInputNotFound    = "INPUT_NOT_FOUND"
	ErrCodeMalformedSnippet = "MALFORMED_SNIPPET"
	ErrCodeCountMismatch    = "COUNT_MISMATCH"
	ErrCodeDegenerateMetric = "DEGENERATE_METRIC"

	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeAnalysisError     = "ANALYSIS_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the domain error code from err, or "" when err carries none.
func ErrorCode(err error) string {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// NewInputNotFoundError creates an error for a missing corpus file
func NewInputNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeInputNotFound, fmt.Sprintf("input not found: %s", path), cause)
}

// NewMalformedSnippetError creates an error for a snippet the parser rejected.
// side is "reference" or "candidate".
func NewMalformedSnippetError(side string, cause error) error {
	return NewDomainError(ErrCodeMalformedSnippet, fmt.Sprintf("malformed %s snippet", side), cause)
}

// NewCountMismatchError creates an error for corpora with different function counts
func NewCountMismatchError(reference, candidate int) error {
	return NewDomainError(ErrCodeCountMismatch,
		fmt.Sprintf("reference has %d functions, candidate has %d", reference, candidate), nil)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewAnalysisError creates an analysis error
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}
