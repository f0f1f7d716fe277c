package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ludo-technologies/simeval/domain"
)

// EvaluationFormatterImpl formats evaluation runs
type EvaluationFormatterImpl struct {
	utils *FormatUtils
}

// NewEvaluationFormatter creates a new evaluation formatter
func NewEvaluationFormatter() *EvaluationFormatterImpl {
	return &EvaluationFormatterImpl{utils: NewFormatUtils()}
}

// Write writes the formatted run to the writer
func (f *EvaluationFormatterImpl) Write(response *domain.EvaluationResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		_, err := io.WriteString(writer, f.formatText(response))
		if err != nil {
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

// formatText formats the run as human-readable text
func (f *EvaluationFormatterImpl) formatText(response *domain.EvaluationResponse) string {
	var builder strings.Builder
	u := f.utils

	builder.WriteString(u.FormatMainHeader("Similarity Evaluation Report"))

	s := response.Summary
	builder.WriteString(u.FormatSectionHeader("SUMMARY"))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "File pairs", u.FormatCount(s.TotalFiles)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Evaluated", u.FormatCount(s.EvaluatedFiles)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Rejected", u.FormatCount(s.RejectedFiles)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Function pairs", u.FormatCount(s.Attempted)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Skipped", u.FormatCount(s.Skipped)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Failed", u.FormatCount(s.Failed)))
	builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Duration", u.FormatDuration(response.Duration)))
	if !response.GeneratedAt.IsZero() {
		builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Generated", u.FormatTimestamp(response.GeneratedAt)))
	}
	if response.ID != "" {
		builder.WriteString(u.FormatLabelWithIndent(SectionPadding, "Run ID", response.ID))
	}
	builder.WriteString(u.FormatSectionSeparator())

	builder.WriteString(u.FormatSectionHeader("AVERAGE SIMILARITY"))
	builder.WriteString(f.reportTable([]string{"average"}, []domain.SimilarityReport{s.Average}))
	builder.WriteString("\n")
	builder.WriteString(u.FormatSectionSeparator())

	if len(response.Files) > 0 {
		builder.WriteString(u.FormatSectionHeader("FILES"))
		builder.WriteString(f.filesTable(response.Files))
		builder.WriteString("\n")
		builder.WriteString(u.FormatSectionSeparator())
	}

	for _, file := range response.Files {
		if len(file.Pairs) == 0 {
			continue
		}
		builder.WriteString(u.FormatSectionHeader(file.Name))
		builder.WriteString(f.pairsTable(file.Pairs))
		builder.WriteString("\n")
		builder.WriteString(u.FormatSectionSeparator())
	}

	return builder.String()
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

func reportHeader(first ...interface{}) table.Row {
	row := table.Row(first)
	for _, name := range domain.ReportFieldNames {
		row = append(row, name)
	}
	return row
}

func (f *EvaluationFormatterImpl) scoreCells(r domain.SimilarityReport) []interface{} {
	fields := r.Fields()
	cells := make([]interface{}, len(fields))
	for i, v := range fields {
		cells[i] = f.utils.FormatScore(v)
	}
	return cells
}

func (f *EvaluationFormatterImpl) reportTable(labels []string, reports []domain.SimilarityReport) string {
	tbl := newTable()
	tbl.AppendHeader(reportHeader(""))
	for i, r := range reports {
		tbl.AppendRow(append(table.Row{labels[i]}, f.scoreCells(r)...))
	}
	return tbl.Render()
}

func (f *EvaluationFormatterImpl) filesTable(files []domain.FileReport) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"file", "status", "pairs", "skipped", "failed", "overall", "note"})
	for _, file := range files {
		if !file.Evaluated() {
			tbl.AppendRow(table.Row{file.Name, f.utils.FormatStatus(string(file.Status)), "-", "-", "-", "-", file.RejectCode})
			continue
		}
		tbl.AppendRow(table.Row{
			file.Name,
			f.utils.FormatStatus(string(file.Status)),
			file.Attempted,
			file.Skipped,
			file.Failed,
			f.utils.FormatScore(file.Average.Overall),
			"",
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(files))})
	return tbl.Render()
}

func (f *EvaluationFormatterImpl) pairsTable(pairs []domain.PairResult) string {
	tbl := newTable()
	tbl.AppendHeader(reportHeader("#", "status"))
	for _, p := range pairs {
		row := table.Row{p.Index, f.utils.FormatStatus(string(p.Status))}
		if p.Status == domain.PairStatusSkipped {
			tbl.AppendRow(row)
			continue
		}
		row = append(row, f.scoreCells(p.Report)...)
		if p.ErrorCode != "" {
			row = append(row, p.ErrorCode)
		}
		tbl.AppendRow(row)
	}
	return tbl.Render()
}

// writeCSV writes one row per file, plus one row per pair when pairs are present
func (f *EvaluationFormatterImpl) writeCSV(response *domain.EvaluationResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{"file", "pair", "status", "code"}
	header = append(header, domain.ReportFieldNames...)
	if err := w.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}

	for _, file := range response.Files {
		row := []string{file.Name, "", string(file.Status), file.RejectCode}
		row = append(row, csvScores(file.Evaluated(), file.Average)...)
		if err := w.Write(row); err != nil {
			return domain.NewOutputError("failed to write CSV row", err)
		}

		for _, p := range file.Pairs {
			row := []string{file.Name, strconv.Itoa(p.Index), string(p.Status), p.ErrorCode}
			row = append(row, csvScores(p.Attempted(), p.Report)...)
			if err := w.Write(row); err != nil {
				return domain.NewOutputError("failed to write CSV row", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV", err)
	}
	return nil
}

func csvScores(present bool, r domain.SimilarityReport) []string {
	fields := r.Fields()
	out := make([]string, len(fields))
	if !present {
		return out
	}
	for i, v := range fields {
		out[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return out
}

var _ domain.EvaluationOutputFormatter = (*EvaluationFormatterImpl)(nil)
