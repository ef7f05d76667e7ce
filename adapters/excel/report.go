package excel

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"godna/domain/dna"
	"godna/domain/event"
	"godna/domain/forecast"
)

// Sheet names of the strategy report workbook.
const (
	projectionSheet = "Projection"
	weightsSheet    = "Weights"
	eventsSheet     = "Events"
)

// StrategyReport bundles everything the exported workbook shows.
type StrategyReport struct {
	Projection *forecast.Projection
	Weights    dna.SimilarityWeights
	Events     event.Log
}

// ReportWriter renders a strategy report as an xlsx workbook
type ReportWriter struct{}

// NewReportWriter creates a new report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Build renders the workbook and returns its bytes for download
func (w *ReportWriter) Build(report StrategyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", projectionSheet); err != nil {
		return nil, fmt.Errorf("failed to name projection sheet: %w", err)
	}
	for _, sheet := range []string{weightsSheet, eventsSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create %s sheet: %w", sheet, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := w.writeProjection(f, headerStyle, report.Projection); err != nil {
		return nil, err
	}
	if err := w.writeWeights(f, headerStyle, report.Weights); err != nil {
		return nil, err
	}
	if err := w.writeEvents(f, headerStyle, report.Events); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *ReportWriter) writeProjection(f *excelize.File, headerStyle int, projection *forecast.Projection) error {
	headers := []string{
		"Date",
		"Sessions_Base", "Sessions_Sim",
		"Conversions_Base", "Conversions_Sim",
		"Revenue_Base", "Revenue_Sim",
	}
	if err := w.writeHeader(f, projectionSheet, headerStyle, headers); err != nil {
		return err
	}
	if err := f.SetColWidth(projectionSheet, "A", "A", 12); err != nil {
		return err
	}
	if projection == nil {
		return nil
	}

	for r, row := range projection.Rows {
		values := []interface{}{
			row.Day.String(),
			round2(row.Baseline.Sessions), round2(row.Simulated.Sessions),
			round2(row.Baseline.Conversions), round2(row.Simulated.Conversions),
			round2(row.Baseline.Revenue), round2(row.Simulated.Revenue),
		}
		if err := w.writeRow(f, projectionSheet, r+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeWeights(f *excelize.File, headerStyle int, weights dna.SimilarityWeights) error {
	headers := []string{"Year", "Similarity_Weight", "Blend_Share"}
	if err := w.writeHeader(f, weightsSheet, headerStyle, headers); err != nil {
		return err
	}

	for r, year := range weights.Years() {
		values := []interface{}{
			year,
			round4(weights[year]),
			round4(weights.BlendShare(year)),
		}
		if err := w.writeRow(f, weightsSheet, r+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeEvents(f *excelize.File, headerStyle int, log event.Log) error {
	headers := []string{"Index", "Type", "Description"}
	if err := w.writeHeader(f, eventsSheet, headerStyle, headers); err != nil {
		return err
	}
	if err := f.SetColWidth(eventsSheet, "C", "C", 50); err != nil {
		return err
	}

	for r, e := range log {
		values := []interface{}{r, event.KindOf(e), e.Label()}
		if err := w.writeRow(f, eventsSheet, r+2, values); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader writes a bold header row
func (w *ReportWriter) writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

// writeRow writes one 1-indexed data row
func (w *ReportWriter) writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
