package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ludo-technologies/simeval/domain"
)

// CorpusReaderImpl implements the CorpusReader interface
type CorpusReaderImpl struct {
	delimiter string
}

// NewCorpusReader creates a corpus reader splitting on delimiter
func NewCorpusReader(delimiter string) *CorpusReaderImpl {
	return &CorpusReaderImpl{delimiter: delimiter}
}

// ReadCorpus reads a corpus file and splits it into snippets
func (r *CorpusReaderImpl) ReadCorpus(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewInputNotFoundError(path, err)
		}
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot read corpus: %s", path), err)
	}
	return r.SplitCorpus(string(content)), nil
}

// SplitCorpus splits corpus text on the delimiter, trims every snippet and drops empty ones
func (r *CorpusReaderImpl) SplitCorpus(content string) []string {
	parts := strings.Split(strings.TrimSpace(content), r.delimiter)
	snippets := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			snippets = append(snippets, s)
		}
	}
	return snippets
}

// FileExists checks if a regular file exists
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

var _ domain.CorpusReader = (*CorpusReaderImpl)(nil)
