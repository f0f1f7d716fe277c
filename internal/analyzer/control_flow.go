package analyzer

import (
	"sort"
	"strings"

	"github.com/ludo-technologies/simeval/internal/parser"
)

// Control-flow comparison granularities
const (
	GranularityString = "string"
	GranularityLabel  = "label"
)

// ControlFlowComparator compares the multiset of control constructs in two trees.
// Nesting and order are ignored.
type ControlFlowComparator struct {
	constructs  map[string]struct{}
	granularity string
}

// NewControlFlowComparator creates a comparator over the given construct node types
func NewControlFlowComparator(constructs []string, granularity string) *ControlFlowComparator {
	set := make(map[string]struct{}, len(constructs))
	for _, c := range constructs {
		set[c] = struct{}{}
	}
	if granularity == "" {
		granularity = GranularityString
	}
	return &ControlFlowComparator{constructs: set, granularity: granularity}
}

// Extract returns the sorted construct labels found anywhere in the tree
func (c *ControlFlowComparator) Extract(root *parser.Node) []string {
	labels := []string{}
	root.Walk(func(n *parser.Node) bool {
		if _, ok := c.constructs[n.Type]; ok {
			labels = append(labels, n.Type)
		}
		return true
	})
	sort.Strings(labels)
	return labels
}

// Compare scores two extracted sequences. With string granularity the labels are
// joined and compared character by character; with label granularity each label is one symbol.
func (c *ControlFlowComparator) Compare(a, b []string) float64 {
	if c.granularity == GranularityLabel {
		return SequenceSimilarity(a, b)
	}
	return NormalizedSimilarity(strings.Join(a, ""), strings.Join(b, ""))
}
