package analyzer

import (
	"math"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/parser"
)

// HalsteadTables classifies node types for Halstead counting
type HalsteadTables struct {
	Operators []string
	// Sigils count whole node types as one operator symbol, e.g. call_expression as "()"
	Sigils   map[string]string
	Operands []string
}

// HalsteadComparator measures and compares Halstead volume
type HalsteadComparator struct {
	operators map[string]struct{}
	sigils    map[string]string
	operands  map[string]struct{}
}

// NewHalsteadComparator creates a comparator from classification tables
func NewHalsteadComparator(tables HalsteadTables) *HalsteadComparator {
	h := &HalsteadComparator{
		operators: toSet(tables.Operators),
		sigils:    make(map[string]string, len(tables.Sigils)),
		operands:  toSet(tables.Operands),
	}
	for k, v := range tables.Sigils {
		h.sigils[k] = v
	}
	return h
}

// Measure counts operators and operands over every node, named or not.
// Operands are distinguished by source text.
func (h *HalsteadComparator) Measure(root *parser.Node) domain.HalsteadMetrics {
	operators := make(map[string]int)
	operands := make(map[string]int)
	totalOperators, totalOperands := 0, 0

	root.Walk(func(n *parser.Node) bool {
		if _, ok := h.operators[n.Type]; ok {
			operators[n.Type]++
			totalOperators++
		} else if sigil, ok := h.sigils[n.Type]; ok {
			operators[sigil]++
			totalOperators++
		} else if _, ok := h.operands[n.Type]; ok {
			operands[n.Text]++
			totalOperands++
		}
		return true
	})

	return NewHalsteadMetrics(len(operators), len(operands), totalOperators, totalOperands)
}

// NewHalsteadMetrics derives volume, difficulty and effort from the four base counts
func NewHalsteadMetrics(n1, n2, bigN1, bigN2 int) domain.HalsteadMetrics {
	vocabulary := n1 + n2
	length := bigN1 + bigN2

	volume := 0.0
	if vocabulary > 0 {
		volume = float64(length) * math.Log2(float64(vocabulary))
	}
	difficulty := (float64(n1) / 2.0) * (float64(bigN2) / float64(max(n2, 1)))

	return domain.HalsteadMetrics{
		DistinctOperators: n1,
		DistinctOperands:  n2,
		TotalOperators:    bigN1,
		TotalOperands:     bigN2,
		Vocabulary:        vocabulary,
		Length:            length,
		Volume:            volume,
		Difficulty:        difficulty,
		Effort:            volume * difficulty,
	}
}

// Compare returns 1 - |v1-v2|/max(v1,v2), or 1.0 when both volumes are zero
func (h *HalsteadComparator) Compare(a, b domain.HalsteadMetrics) float64 {
	hi := math.Max(a.Volume, b.Volume)
	if hi <= 0 {
		return 1.0
	}
	return clamp01(1.0 - math.Abs(a.Volume-b.Volume)/hi)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
