package analyzer

import (
	"github.com/ludo-technologies/simeval/internal/parser"
)

// TokenTables classifies nodes for the token stream
type TokenTables struct {
	IdentifierTypes []string
	// Placeholder replaces every identifier so renaming is free
	Placeholder  string
	LiteralTypes []string
	Operators    []string
}

// TokenComparator compares normalized token streams by edit distance
type TokenComparator struct {
	identifiers map[string]struct{}
	literals    map[string]struct{}
	operators   map[string]struct{}
	placeholder string
}

// NewTokenComparator creates a token comparator
func NewTokenComparator(tables TokenTables) *TokenComparator {
	return &TokenComparator{
		identifiers: toSet(tables.IdentifierTypes),
		literals:    toSet(tables.LiteralTypes),
		operators:   toSet(tables.Operators),
		placeholder: tables.Placeholder,
	}
}

// Tokens walks the tree in pre-order. Literals are emitted whole and their
// children are not visited; nodes outside the three classes are dropped.
func (c *TokenComparator) Tokens(root *parser.Node) []string {
	tokens := []string{}
	root.Walk(func(n *parser.Node) bool {
		if _, ok := c.identifiers[n.Type]; ok {
			tokens = append(tokens, c.placeholder)
			return true
		}
		if _, ok := c.literals[n.Type]; ok {
			tokens = append(tokens, n.Text)
			return false
		}
		if _, ok := c.operators[n.Type]; ok {
			tokens = append(tokens, n.Type)
		}
		return true
	})
	return tokens
}

// Compare returns 1 - lev(a,b)/max(len(a),len(b)); 1.0 when both are empty
func (c *TokenComparator) Compare(a, b []string) float64 {
	return SequenceSimilarity(a, b)
}
