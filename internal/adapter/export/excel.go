// Package export renders SkillProof reports into spreadsheet downloads.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const (
	summarySheet = "Summary"
	reportsSheet = "Reports"
	timeLayout   = "2006-01-02 15:04:05"
)

var reportHeaders = []string{
	"Report ID", "Candidate", "Email", "Job", "Skill Level", "Verdict",
	"Strengths", "Weaknesses", "Thinking", "Time & Behavior",
	"Integrity", "Confidence", "Generated At",
}

// ExcelExporter implements domain.ReportExporter with one row per report
// and a summary sheet of integrity counts.
type ExcelExporter struct{}

var _ domain.ReportExporter = ExcelExporter{}

// Export builds an .xlsx workbook in memory.
func (ExcelExporter) Export(ctx context.Context, reports []domain.SkillProofReport) ([]byte, error) {
	_, span := otel.Tracer("export.excel").Start(ctx, "ExcelExporter.Export")
	defer span.End()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportsSheet); err != nil {
		return nil, fmt.Errorf("op=export.excel: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("op=export.excel: %w", err)
	}
	if err := writeReports(f, reports); err != nil {
		return nil, fmt.Errorf("op=export.excel: %w", err)
	}
	if err := writeSummary(f, reports); err != nil {
		return nil, fmt.Errorf("op=export.excel: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("op=export.excel: %w", err)
	}
	return buf.Bytes(), nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeReports(f *excelize.File, reports []domain.SkillProofReport) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(reportsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	if err := f.SetCellStyle(reportsSheet, "A1", last, style); err != nil {
		return err
	}
	_ = f.SetColWidth(reportsSheet, "A", "F", 22)
	_ = f.SetColWidth(reportsSheet, "G", "J", 45)
	_ = f.SetColWidth(reportsSheet, "K", "M", 20)

	for i, r := range reports {
		row := []any{
			r.ID, r.CandidateName, r.CandidateEmail, r.JobTitle, string(r.InferredSkillLevel),
			r.EvaluationVerdictPlainEnglish, strings.Join(r.Strengths, "; "), strings.Join(r.Weaknesses, "; "),
			r.ThinkingInsight, r.TimeAndBehaviorInsight, string(r.IntegrityStatus),
			string(r.ConfidenceAssessment), r.ReportGeneratedAt.UTC().Format(timeLayout),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(reportsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, reports []domain.SkillProofReport) error {
	counts := map[domain.IntegrityStatus]int{}
	for _, r := range reports {
		counts[r.IntegrityStatus]++
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Total reports", len(reports)},
		{"Clean", counts[domain.IntegrityClean]},
		{"Flagged", counts[domain.IntegrityFlagged]},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	return f.SetCellStyle(summarySheet, "A1", "B1", style)
}
