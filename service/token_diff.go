package service

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// TokenDiff renders an inline diff of two token sequences.
// Deleted tokens appear as [-tok-], inserted ones as {+tok+}.
func TokenDiff(reference, candidate []string) string {
	dmp := diffmatchpatch.New()

	// one token per line, so the line-mode helpers diff whole tokens
	src, dst, lines := dmp.DiffLinesToRunes(joinLines(reference), joinLines(candidate))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var out []string
	for _, d := range diffs {
		for _, tok := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if tok == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				out = append(out, tok)
			case diffmatchpatch.DiffDelete:
				out = append(out, "[-"+tok+"-]")
			case diffmatchpatch.DiffInsert:
				out = append(out, "{+"+tok+"+}")
			}
		}
	}
	return strings.Join(out, " ")
}

func joinLines(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, "\n") + "\n"
}
