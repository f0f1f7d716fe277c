package parser

import (
	"context"
	"sync"
)

// Pool hands out Parsers that share one set of options.
// tree-sitter parsers are not reentrant, so each goroutine borrows its own.
type Pool struct {
	opts Options
	pool sync.Pool
}

// NewPool creates a parser pool
func NewPool(opts Options) *Pool {
	p := &Pool{opts: opts}
	p.pool.New = func() any {
		return NewWithOptions(opts)
	}
	return p
}

// Options returns the options every pooled parser is created with.
func (p *Pool) Options() Options {
	return p.opts
}

// Get borrows a parser. Return it with Put when done.
func (p *Pool) Get() *Parser {
	return p.pool.Get().(*Parser)
}

// Put returns a parser to the pool. Broken parsers are closed instead.
func (p *Pool) Put(parser *Parser) {
	if parser == nil {
		return
	}
	if parser.broken {
		parser.Close()
		return
	}
	p.pool.Put(parser)
}

// Parse borrows a parser for a single call.
// A parser that fails unexpectedly is dropped and the parse is retried once on a fresh one.
func (p *Pool) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	parser := p.Get()
	result, err := parser.Parse(ctx, source)
	if parser.broken {
		parser.Close()
		parser = NewWithOptions(p.opts)
		result, err = parser.Parse(ctx, source)
	}
	p.Put(parser)
	return result, err
}
