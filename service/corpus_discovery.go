package service

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ludo-technologies/simeval/domain"
)

// BasePlaceholder is substituted into the candidate template
const BasePlaceholder = "{base}"

// CorpusDiscovererImpl pairs reference corpora with candidate corpora by file name
type CorpusDiscovererImpl struct {
	referencePattern  string
	referenceSuffix   string
	candidateTemplate string
}

// NewCorpusDiscoverer creates a discoverer.
// referencePattern is a doublestar glob relative to the root; candidateTemplate
// is a root-relative path containing {base}.
func NewCorpusDiscoverer(referencePattern, referenceSuffix, candidateTemplate string) *CorpusDiscovererImpl {
	return &CorpusDiscovererImpl{
		referencePattern:  referencePattern,
		referenceSuffix:   referenceSuffix,
		candidateTemplate: candidateTemplate,
	}
}

// Discover returns file pairs sorted by reference path. Candidates are not
// checked for existence here; a missing candidate rejects only its own pair.
func (d *CorpusDiscovererImpl) Discover(root string) ([]domain.FilePair, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.NewInputNotFoundError(root, err)
	}
	if !info.IsDir() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("corpus root is not a directory: %s", root), nil)
	}
	if !doublestar.ValidatePattern(d.referencePattern) {
		return nil, domain.NewConfigError(fmt.Sprintf("invalid reference pattern %q", d.referencePattern), nil)
	}

	matches, err := doublestar.Glob(os.DirFS(root), d.referencePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("failed to search %s", root), err)
	}
	sort.Strings(matches)

	pairs := make([]domain.FilePair, 0, len(matches))
	for _, match := range matches {
		name := path.Base(match)
		pairs = append(pairs, domain.FilePair{
			Name:          name,
			ReferencePath: filepath.Join(root, filepath.FromSlash(match)),
			CandidatePath: filepath.Join(root, filepath.FromSlash(d.CandidatePath(name))),
		})
	}
	return pairs, nil
}

// CandidatePath maps a reference file name to its root-relative candidate path
func (d *CorpusDiscovererImpl) CandidatePath(referenceName string) string {
	base := strings.TrimSuffix(referenceName, d.referenceSuffix)
	return strings.ReplaceAll(d.candidateTemplate, BasePlaceholder, base)
}

var _ domain.CorpusDiscoverer = (*CorpusDiscovererImpl)(nil)
