package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/simeval/domain"
)

// OutputFormatResolver resolves the report format and destination
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine parses a format name; an empty name falls back to defaultFormat.
// The returned extension is empty for text output.
func (r *OutputFormatResolver) Determine(name, defaultFormat string) (domain.OutputFormat, string, error) {
	if name == "" {
		name = defaultFormat
	}
	format, err := domain.ParseOutputFormat(strings.ToLower(name))
	if err != nil {
		return "", "", err
	}
	if format == domain.OutputFormatText {
		return format, "", nil
	}
	return format, string(format), nil
}

// ReportPath builds a timestamped report file name inside dir, e.g.
// evaluate_20260102_150405.json. It returns "" for text output or an empty dir.
func (r *OutputFormatResolver) ReportPath(dir, command string, format domain.OutputFormat, now time.Time) string {
	if dir == "" || format == domain.OutputFormatText {
		return ""
	}
	name := fmt.Sprintf("%s_%s.%s", command, now.Format("20060102_150405"), format)
	return filepath.Join(dir, name)
}
