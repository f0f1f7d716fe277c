package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/ludo-technologies/simeval/domain"
	"gopkg.in/yaml.v3"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data), nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	SectionPadding = 2
)

// Score band thresholds for colored output
const (
	scoreThresholdHigh   = 0.8
	scoreThresholdMedium = 0.5
)

// SimilarityBand buckets a score for display
type SimilarityBand string

const (
	BandHigh   SimilarityBand = "High"
	BandMedium SimilarityBand = "Medium"
	BandLow    SimilarityBand = "Low"
)

// BandFor returns the display band of a score
func BandFor(score float64) SimilarityBand {
	switch {
	case score >= scoreThresholdHigh:
		return BandHigh
	case score >= scoreThresholdMedium:
		return BandMedium
	default:
		return BandLow
	}
}

// FormatUtils provides shared formatting utilities
type FormatUtils struct{}

// NewFormatUtils creates a new format utilities instance
func NewFormatUtils() *FormatUtils {
	return &FormatUtils{}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(title + "\n")
	builder.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(strings.ToUpper(title) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatSectionSeparator creates a section separator
func (f *FormatUtils) FormatSectionSeparator() string {
	return "\n"
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", indent), label, value)
}

// FormatScore renders a score with four decimals, colored by band.
// Coloring follows color.NoColor, which is set when stdout is not a terminal.
func (f *FormatUtils) FormatScore(score float64) string {
	text := fmt.Sprintf("%.4f", score)
	switch BandFor(score) {
	case BandHigh:
		return color.GreenString(text)
	case BandMedium:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}

// FormatCount formats a count with thousands separators
func (f *FormatUtils) FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatDuration formats a duration in milliseconds
func (f *FormatUtils) FormatDuration(durationMs int64) string {
	return (time.Duration(durationMs) * time.Millisecond).String()
}

// FormatTimestamp formats a generation time relative to now
func (f *FormatUtils) FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), humanize.Time(t))
}

// FormatStatus colors a file or pair status
func (f *FormatUtils) FormatStatus(status string) string {
	switch status {
	case string(domain.FileStatusEvaluated), string(domain.PairStatusScored):
		return color.GreenString(status)
	case string(domain.PairStatusSkipped):
		return color.CyanString(status)
	default:
		return color.RedString(status)
	}
}
