package analyzer

import (
	"strings"

	"github.com/ludo-technologies/simeval/internal/parser"
)

// StructureComparator scores the syntactic shape of two parsed snippets
type StructureComparator interface {
	// Name is the configuration value selecting this algorithm
	Name() string
	Compare(a, b *parser.Node) float64
}

// Canonicalizer maps parser nodes to the labels structure comparison sees.
// Calls to any write primitive collapse to a single label.
type Canonicalizer struct {
	writePrimitives map[string]struct{}
	writeLabel      string
}

// NewCanonicalizer creates a canonicalizer for the given write primitive synonyms
func NewCanonicalizer(writePrimitives []string, writeLabel string) *Canonicalizer {
	set := make(map[string]struct{}, len(writePrimitives))
	for _, p := range writePrimitives {
		set[p] = struct{}{}
	}
	return &Canonicalizer{writePrimitives: set, writeLabel: writeLabel}
}

// Label returns the canonical label for one node
func (c *Canonicalizer) Label(n *parser.Node) string {
	if callee := n.Callee(); callee != nil {
		if _, ok := c.writePrimitives[strings.TrimSpace(callee.Text)]; ok {
			return c.writeLabel
		}
	}
	return n.Type
}

// Sequence returns canonical labels in pre-order
func (c *Canonicalizer) Sequence(root *parser.Node) []string {
	var labels []string
	root.Walk(func(n *parser.Node) bool {
		labels = append(labels, c.Label(n))
		return true
	})
	return labels
}

// Serialize concatenates the pre-order labels into one string
func (c *Canonicalizer) Serialize(root *parser.Node) string {
	return strings.Join(c.Sequence(root), "")
}

// SerializedComparator approximates tree edit distance in linear space by
// comparing the serialized label strings character by character.
type SerializedComparator struct {
	canon *Canonicalizer
}

// NewSerializedComparator creates the default structure comparator
func NewSerializedComparator(canon *Canonicalizer) *SerializedComparator {
	return &SerializedComparator{canon: canon}
}

func (s *SerializedComparator) Name() string { return "serialized" }

// Compare returns 1.0 when both serializations are empty
func (s *SerializedComparator) Compare(a, b *parser.Node) float64 {
	return NormalizedSimilarity(s.canon.Serialize(a), s.canon.Serialize(b))
}
