package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ludo-technologies/simeval/domain"
)

// CompareFormatterImpl formats single pair comparisons
type CompareFormatterImpl struct {
	utils *FormatUtils
}

// NewCompareFormatter creates a new compare formatter
func NewCompareFormatter() *CompareFormatterImpl {
	return &CompareFormatterImpl{utils: NewFormatUtils()}
}

// Write writes the formatted comparison to the writer
func (f *CompareFormatterImpl) Write(response *domain.CompareResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		if _, err := io.WriteString(writer, f.formatText(response)); err != nil {
			return domain.NewOutputError("failed to write output", err)
		}
		return nil
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *CompareFormatterImpl) formatText(response *domain.CompareResponse) string {
	var builder strings.Builder
	u := f.utils

	builder.WriteString(u.FormatMainHeader("Function Similarity"))
	if response.ReferencePath != "" {
		builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Reference", response.ReferencePath))
	}
	if response.CandidatePath != "" {
		builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Candidate", response.CandidatePath))
	}
	builder.WriteString(u.FormatSectionSeparator())

	tbl := newTable()
	tbl.AppendHeader(table.Row{"dimension", "score", "band"})
	for i, v := range response.Report.Fields() {
		tbl.AppendRow(table.Row{domain.ReportFieldNames[i], u.FormatScore(v), BandFor(v)})
	}
	builder.WriteString(tbl.Render())
	builder.WriteString("\n\n")

	if d := response.Detail; d != nil {
		builder.WriteString(f.formatDetail(d))
	}
	if response.Diff != "" {
		builder.WriteString(u.FormatSectionHeader("TOKEN DIFF"))
		builder.WriteString(response.Diff + "\n")
		builder.WriteString(u.FormatSectionSeparator())
	}
	return builder.String()
}

func (f *CompareFormatterImpl) formatDetail(d *domain.PairDetail) string {
	var builder strings.Builder
	u := f.utils

	builder.WriteString(u.FormatSectionHeader("INTERFACE"))
	sig := newTable()
	sig.AppendHeader(table.Row{"", "return type", "name", "params"})
	sig.AppendRow(table.Row{"reference", d.ReferenceSignature.ReturnType, d.ReferenceSignature.Name, d.ReferenceSignature.Params})
	sig.AppendRow(table.Row{"candidate", d.CandidateSignature.ReturnType, d.CandidateSignature.Name, d.CandidateSignature.Params})
	sig.AppendFooter(table.Row{"score", u.FormatScore(d.Interface.ReturnType), u.FormatScore(d.Interface.Name), u.FormatScore(d.Interface.Params)})
	builder.WriteString(sig.Render() + "\n\n")

	builder.WriteString(u.FormatSectionHeader("HALSTEAD"))
	h := newTable()
	h.AppendHeader(table.Row{"", "n1", "n2", "N1", "N2", "volume", "difficulty"})
	for _, row := range []struct {
		label string
		m     domain.HalsteadMetrics
	}{{"reference", d.ReferenceHalstead}, {"candidate", d.CandidateHalstead}} {
		h.AppendRow(table.Row{
			row.label,
			row.m.DistinctOperators, row.m.DistinctOperands,
			row.m.TotalOperators, row.m.TotalOperands,
			fmt.Sprintf("%.2f", row.m.Volume), fmt.Sprintf("%.2f", row.m.Difficulty),
		})
	}
	builder.WriteString(h.Render() + "\n\n")

	builder.WriteString(u.FormatSectionHeader("CONTROL FLOW"))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "reference", strings.Join(d.ReferenceControl, " ")))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "candidate", strings.Join(d.CandidateControl, " ")))
	builder.WriteString(u.FormatSectionSeparator())

	builder.WriteString(u.FormatSectionHeader("STRUCTURE"))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "algorithm", d.StructureAlgorithm))
	if d.ReferenceHasErrors || d.CandidateHasErrors {
		builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "recovered parse",
			fmt.Sprintf("reference=%t candidate=%t", d.ReferenceHasErrors, d.CandidateHasErrors)))
	}
	builder.WriteString(u.FormatSectionSeparator())
	return builder.String()
}

func (f *CompareFormatterImpl) writeCSV(response *domain.CompareResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	header := append([]string{"reference", "candidate"}, domain.ReportFieldNames...)
	row := append([]string{response.ReferencePath, response.CandidatePath}, csvScores(true, response.Report)...)
	if err := w.WriteAll([][]string{header, row}); err != nil {
		return domain.NewOutputError("failed to write CSV", err)
	}
	return nil
}

var _ domain.CompareOutputFormatter = (*CompareFormatterImpl)(nil)
