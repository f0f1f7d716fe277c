package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// ErrSyntax is returned in strict mode when the tree contains ERROR or MISSING nodes.
var ErrSyntax = errors.New("syntax errors found in source code")

// ErrTimeout is returned when a parse does not finish within the configured timeout.
var ErrTimeout = errors.New("parse timed out")

// ErrCanceled is returned when the caller's context is done before parsing starts.
var ErrCanceled = errors.New("parse canceled")

// Options controls how a Parser treats its input.
type Options struct {
	// Timeout bounds a single Parse call through the tree-sitter time limit. Zero means no limit.
	Timeout time.Duration
	// Strict rejects trees that tree-sitter had to recover from.
	Strict bool
}

// Parser parses C function snippets using tree-sitter.
// A Parser is not safe for concurrent use; borrow one per goroutine from a Pool.
type Parser struct {
	parser *sitter.Parser
	opts   Options
	// broken marks a parser that failed for a reason other than its timeout.
	// A Pool closes broken parsers instead of reusing them.
	broken bool
}

// New creates a new Parser instance with the C grammar
func New() *Parser {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Parser with explicit options
func NewWithOptions(opts Options) *Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	if opts.Timeout > 0 {
		parser.SetOperationLimit(int(max(opts.Timeout.Microseconds(), 1)))
	}
	return &Parser{
		parser: parser,
		opts:   opts,
	}
}

// ParseResult holds the converted syntax tree of one snippet.
// The underlying tree-sitter tree is released before Parse returns.
type ParseResult struct {
	RootNode   *Node
	SourceCode []byte
	HasErrors  bool
}

// Parse parses C source code and returns the converted tree.
// ctx is only checked before parsing starts; a running parse is bounded by Options.Timeout.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	// A context without a Done channel keeps smacker from arming its
	// cancellation flag, which could otherwise outlive this call.
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		p.parser.Reset()
		if errors.Is(err, sitter.ErrOperationLimit) && p.opts.Timeout > 0 {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.opts.Timeout)
		}
		p.broken = true
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree == nil {
		p.broken = true
		return nil, fmt.Errorf("failed to parse source: no tree produced")
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	hasErrors := rootNode.HasError()
	if hasErrors && p.opts.Strict {
		return nil, ErrSyntax
	}

	return &ParseResult{
		RootNode:   NewBuilder(source).Build(rootNode),
		SourceCode: source,
		HasErrors:  hasErrors,
	}, nil
}

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}
