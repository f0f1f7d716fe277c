package analyzer

import (
	"github.com/ludo-technologies/simeval/domain"
)

// Interface sub-score weights
const (
	InterfaceNameWeight       = 0.4
	InterfaceReturnTypeWeight = 0.3
	InterfaceParamsWeight     = 0.3
)

// InterfaceComparator scores two signatures field by field
type InterfaceComparator struct {
	typeAliases map[string]string
}

// NewInterfaceComparator creates a comparator that maps return types through aliases
// before comparing them. A nil map disables aliasing.
func NewInterfaceComparator(typeAliases map[string]string) *InterfaceComparator {
	aliases := make(map[string]string, len(typeAliases))
	for k, v := range typeAliases {
		aliases[k] = v
	}
	return &InterfaceComparator{typeAliases: aliases}
}

// CanonicalType resolves a return type through the alias table
func (c *InterfaceComparator) CanonicalType(t string) string {
	if canonical, ok := c.typeAliases[t]; ok {
		return canonical
	}
	return t
}

// Compare returns the three field similarities and their weighted total
func (c *InterfaceComparator) Compare(a, b domain.Signature) domain.InterfaceScore {
	score := domain.InterfaceScore{
		Name:       NormalizedSimilarity(a.Name, b.Name),
		ReturnType: NormalizedSimilarity(c.CanonicalType(a.ReturnType), c.CanonicalType(b.ReturnType)),
		Params:     NormalizedSimilarity(a.Params, b.Params),
	}
	score.Total = clamp01(InterfaceNameWeight*score.Name +
		InterfaceReturnTypeWeight*score.ReturnType +
		InterfaceParamsWeight*score.Params)
	return score
}
