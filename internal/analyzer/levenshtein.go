package analyzer

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// NormalizedSimilarity returns 1 - lev(a,b)/max(len(a),len(b),1) over runes.
// Two empty strings are identical.
func NormalizedSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b), 1)
	return clamp01(1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen))
}

// SequenceDistance is the Levenshtein distance over two token sequences.
// Each distinct token is encoded as one rune so the string implementation applies.
func SequenceDistance[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	codes := make(map[T]rune, len(a)+len(b))
	encode := func(tokens []T) string {
		out := make([]rune, len(tokens))
		for i, tok := range tokens {
			r, ok := codes[tok]
			if !ok {
				r = tokenRune(len(codes))
				codes[tok] = r
			}
			out[i] = r
		}
		return string(out)
	}
	return levenshtein.ComputeDistance(encode(a), encode(b))
}

// tokenRune returns the i-th valid rune, skipping the surrogate range
func tokenRune(i int) rune {
	r := rune(i + 1)
	if r >= surrogateMin {
		r += surrogateMax - surrogateMin + 1
	}
	return r
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// SequenceSimilarity is NormalizedSimilarity generalized to token sequences
func SequenceSimilarity[T comparable](a, b []T) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return clamp01(1.0 - float64(SequenceDistance(a, b))/float64(maxLen))
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
