package xlsx

import (
	"fmt"
	"time"

	"github.com/recruitly/screening-engine/internal/service/report/types"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	resultsSheet = "Results"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatXLSX
}

func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(resultsSheet); err != nil {
		return nil, err
	}

	if err := r.writeSummary(f, data); err != nil {
		return nil, fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := r.writeResults(f, data.Rows); err != nil {
		return nil, fmt.Errorf("failed to write results sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeSummary(f *excelize.File, data *types.ReportData) error {
	s := data.Summary
	rows := [][]any{
		{"Screening run report"},
		{"Generated", data.Generated.Format(time.RFC3339)},
		{},
	}
	if data.Job != nil {
		rows = append(rows, []any{"Job Title", data.Job.Title}, []any{"Job Code", data.Job.Code()})
	}
	rows = append(rows,
		[]any{"Run ID", data.Run.ID.String()},
		[]any{"Status", data.Run.Status},
		[]any{"Total", s.Total},
		[]any{"Processed", s.Processed},
		[]any{"Screened In", s.ScreenedIn},
		[]any{"Screened Out", s.ScreenedOut},
		[]any{"Failed", s.Failed},
		[]any{"Average Score", s.AverageScore},
		[]any{},
		[]any{"Fit Level", "Count"},
	)
	for _, b := range s.ByFitLevel {
		rows = append(rows, []any{b.Label, b.Count})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func (r *Renderer) writeResults(f *excelize.File, rows []types.ResultRow) error {
	header := make([]any, len(types.Header))
	for i, h := range types.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(types.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(resultsSheet, "A1", last, style); err != nil {
		return err
	}

	for i, row := range rows {
		values := row.Values()
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SetPanes(resultsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
