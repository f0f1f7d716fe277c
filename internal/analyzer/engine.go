package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"runtime/debug"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/parser"
)

// Snippet sides, used in error messages and logs
const (
	SideReference = "reference"
	SideCandidate = "candidate"
)

type textRewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Engine scores one reference/candidate pair across all five dimensions.
// An Engine is safe for concurrent use; each call borrows its own parser.
type Engine struct {
	parsers    *parser.Pool
	rewrites   []textRewrite
	normalize  bool
	signatures *SignatureExtractor
	iface      *InterfaceComparator
	canon      *Canonicalizer
	structure  StructureComparator
	control    *ControlFlowComparator
	halstead   *HalsteadComparator
	tokens     *TokenComparator
	aggregator *Aggregator
}

// NewEngine builds an engine from analysis settings and lookup tables
func NewEngine(analysis config.AnalysisConfig, tables config.TablesConfig) (*Engine, error) {
	if err := analysis.Weights.Validate(); err != nil {
		return nil, domain.NewConfigError("analysis.weights", err)
	}

	rewrites := make([]textRewrite, 0, len(tables.TextRewrites))
	for _, rw := range tables.TextRewrites {
		re, err := regexp.Compile(rw.Pattern)
		if err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("text rewrite %q", rw.Pattern), err)
		}
		rewrites = append(rewrites, textRewrite{pattern: re, replacement: rw.Replacement})
	}

	canon := NewCanonicalizer(tables.WritePrimitives, tables.WriteOperationLabel)

	var structure StructureComparator
	switch analysis.StructureAlgorithm {
	case "", config.StructureSerialized:
		structure = NewSerializedComparator(canon)
	case config.StructureTreeEdit:
		structure = NewTreeEditComparator(canon)
	default:
		return nil, domain.NewConfigError(fmt.Sprintf("unknown structure algorithm %q", analysis.StructureAlgorithm), nil)
	}

	return &Engine{
		parsers: parser.NewPool(parser.Options{
			Timeout: analysis.ParseTimeout,
			Strict:  analysis.StrictParse,
		}),
		rewrites:   rewrites,
		normalize:  analysis.Normalize,
		signatures: NewSignatureExtractor(),
		iface:      NewInterfaceComparator(tables.TypeAliases),
		canon:      canon,
		structure:  structure,
		control:    NewControlFlowComparator(tables.ControlConstructs, analysis.ControlFlowGranularity),
		halstead: NewHalsteadComparator(HalsteadTables{
			Operators: tables.HalsteadOperators,
			Sigils:    tables.HalsteadSigils,
			Operands:  tables.HalsteadOperands,
		}),
		tokens: NewTokenComparator(TokenTables{
			IdentifierTypes: tables.IdentifierTypes,
			Placeholder:     tables.IdentifierPlaceholder,
			LiteralTypes:    tables.LiteralTypes,
			Operators:       tables.TokenOperators,
		}),
		aggregator: NewAggregator(analysis.Weights),
	}, nil
}

// NewDefaultEngine builds an engine from the default configuration
func NewDefaultEngine() *Engine {
	cfg := config.DefaultConfig()
	e, err := NewEngine(cfg.Analysis, cfg.Tables)
	if err != nil {
		panic(fmt.Sprintf("default engine configuration is invalid: %v", err))
	}
	return e
}

// StructureAlgorithm names the structure comparator in use
func (e *Engine) StructureAlgorithm() string {
	return e.structure.Name()
}

// Weights returns the aggregation weights
func (e *Engine) Weights() domain.Weights {
	return e.aggregator.Weights()
}

// Normalize applies the configured text rewrites. The input is not modified.
func (e *Engine) Normalize(code string) string {
	if !e.normalize {
		return code
	}
	for _, rw := range e.rewrites {
		code = rw.pattern.ReplaceAllString(code, rw.replacement)
	}
	return code
}

// ComparePair scores a reference snippet against a candidate snippet
func (e *Engine) ComparePair(ctx context.Context, reference, candidate string) (domain.SimilarityReport, error) {
	detail, err := e.ExplainPair(ctx, reference, candidate)
	if err != nil {
		return domain.ZeroReport(), err
	}
	return detail.Report, nil
}

// ExplainPair scores a pair and keeps every intermediate representation
func (e *Engine) ExplainPair(ctx context.Context, reference, candidate string) (detail *domain.PairDetail, err error) {
	defer func() {
		if r := recover(); r != nil {
			detail = nil
			err = domain.NewAnalysisError(fmt.Sprintf("comparator panic: %v", r),
				fmt.Errorf("%s", debug.Stack()))
		}
	}()

	reference = e.Normalize(reference)
	candidate = e.Normalize(candidate)

	refTree, err := e.parse(ctx, SideReference, reference)
	if err != nil {
		return nil, err
	}
	candTree, err := e.parse(ctx, SideCandidate, candidate)
	if err != nil {
		return nil, err
	}

	refSig := e.signatures.ExtractSignature(reference)
	candSig := e.signatures.ExtractSignature(candidate)
	ifaceScore := e.iface.Compare(refSig, candSig)

	refControl := e.control.Extract(refTree.RootNode)
	candControl := e.control.Extract(candTree.RootNode)

	refHalstead := e.halstead.Measure(refTree.RootNode)
	candHalstead := e.halstead.Measure(candTree.RootNode)

	refTokens := e.tokens.Tokens(refTree.RootNode)
	candTokens := e.tokens.Tokens(candTree.RootNode)

	report := e.aggregator.Aggregate(domain.SimilarityReport{
		Interface:   ifaceScore.Total,
		Structure:   e.structure.Compare(refTree.RootNode, candTree.RootNode),
		ControlFlow: e.control.Compare(refControl, candControl),
		Halstead:    e.halstead.Compare(refHalstead, candHalstead),
		TokenEdit:   e.tokens.Compare(refTokens, candTokens),
	})

	return &domain.PairDetail{
		Report:             report,
		ReferenceSignature: refSig,
		CandidateSignature: candSig,
		Interface:          ifaceScore,
		ReferenceHalstead:  refHalstead,
		CandidateHalstead:  candHalstead,
		ReferenceControl:   refControl,
		CandidateControl:   candControl,
		ReferenceTokens:    refTokens,
		CandidateTokens:    candTokens,
		ReferenceStructure: e.canon.Serialize(refTree.RootNode),
		CandidateStructure: e.canon.Serialize(candTree.RootNode),
		StructureAlgorithm: e.structure.Name(),
		ReferenceHasErrors: refTree.HasErrors,
		CandidateHasErrors: candTree.HasErrors,
	}, nil
}

func (e *Engine) parse(ctx context.Context, side, code string) (*parser.ParseResult, error) {
	result, err := e.parsers.Parse(ctx, []byte(code))
	if err != nil {
		return nil, domain.NewMalformedSnippetError(side, fmt.Errorf("parse: %w", err))
	}
	return result, nil
}

var _ domain.PairScorer = (*Engine)(nil)
