package analyzer

import (
	"regexp"
	"strings"

	"github.com/ludo-technologies/simeval/domain"
)

var (
	// header is everything before the first opening brace, across lines
	headerPattern    = regexp.MustCompile(`(?s)^(.*?)\{`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	signaturePattern = regexp.MustCompile(`^(.*?)\s+([A-Za-z_]\w*)\s*\((.*?)\)`)
)

// SignatureExtractor pulls the return type, name and parameter list out of a function header
type SignatureExtractor struct{}

// NewSignatureExtractor creates a signature extractor
func NewSignatureExtractor() *SignatureExtractor {
	return &SignatureExtractor{}
}

// Header returns the whitespace-collapsed text before the first '{', or "" if there is none
func (e *SignatureExtractor) Header(code string) string {
	m := headerPattern.FindStringSubmatch(code)
	if m == nil {
		return ""
	}
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " ")
}

// ExtractSignature never fails; an unrecognized header yields an empty Signature
func (e *SignatureExtractor) ExtractSignature(code string) domain.Signature {
	m := signaturePattern.FindStringSubmatch(e.Header(code))
	if m == nil {
		return domain.Signature{}
	}
	return domain.Signature{
		ReturnType: strings.TrimSpace(m[1]),
		Name:       strings.TrimSpace(m[2]),
		Params:     strings.TrimSpace(m[3]),
	}
}
