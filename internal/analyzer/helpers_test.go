package analyzer

import (
	"context"
	"testing"

	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/parser"
	"github.com/stretchr/testify/require"
)

func parseC(t *testing.T, code string) *parser.Node {
	t.Helper()
	p := parser.New()
	defer p.Close()
	result, err := p.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	return result.RootNode
}

func defaultCanonicalizer() *Canonicalizer {
	tables := config.DefaultTables()
	return NewCanonicalizer(tables.WritePrimitives, tables.WriteOperationLabel)
}

// label builds a hand-made tree for tree edit tests
func label(typ string, children ...*parser.Node) *parser.Node {
	n := parser.NewNode(typ)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}
