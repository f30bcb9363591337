package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/recruitly/screening-engine/internal/service/report/types"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatCSV
}

func (r *Renderer) ContentType() string {
	return "text/csv"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	var csvRows [][]string

	csvRows = append(csvRows, []string{"SCREENING RUN REPORT"})
	csvRows = append(csvRows, []string{fmt.Sprintf("Generated: %s", data.Generated.Format(time.RFC3339))})
	csvRows = append(csvRows, []string{""})

	csvRows = r.addRunSummary(csvRows, data)
	csvRows = r.addFitLevelDistribution(csvRows, data.Summary)
	csvRows = r.addResults(csvRows, data.Rows)

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) addRunSummary(csvRows [][]string, data *types.ReportData) [][]string {
	csvRows = append(csvRows, []string{"RUN SUMMARY"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Field", "Value"})

	if data.Job != nil {
		csvRows = append(csvRows,
			[]string{"Job Title", data.Job.Title},
			[]string{"Job Code", data.Job.Code()},
		)
	}

	s := data.Summary
	csvRows = append(csvRows,
		[]string{"Run ID", data.Run.ID.String()},
		[]string{"Status", data.Run.Status},
		[]string{"Total", fmt.Sprintf("%d", s.Total)},
		[]string{"Processed", fmt.Sprintf("%d", s.Processed)},
		[]string{"Screened In", fmt.Sprintf("%d", s.ScreenedIn)},
		[]string{"Screened Out", fmt.Sprintf("%d", s.ScreenedOut)},
		[]string{"Failed", fmt.Sprintf("%d", s.Failed)},
		[]string{"Average Score", fmt.Sprintf("%.1f", s.AverageScore)},
	)
	if data.Run.Error != nil {
		csvRows = append(csvRows, []string{"Error", *data.Run.Error})
	}
	return append(csvRows, []string{""})
}

func (r *Renderer) addFitLevelDistribution(csvRows [][]string, s types.RunSummary) [][]string {
	csvRows = append(csvRows, []string{"FIT LEVEL DISTRIBUTION"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Fit Level", "Count"})
	for _, b := range s.ByFitLevel {
		csvRows = append(csvRows, []string{b.Label, fmt.Sprintf("%d", b.Count)})
	}
	for _, b := range s.ByErrorKind {
		csvRows = append(csvRows, []string{"error: " + b.Label, fmt.Sprintf("%d", b.Count)})
	}
	return append(csvRows, []string{""})
}

func (r *Renderer) addResults(csvRows [][]string, rows []types.ResultRow) [][]string {
	csvRows = append(csvRows, []string{"RESULTS"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, types.Header)
	for _, row := range rows {
		csvRows = append(csvRows, row.Values())
	}
	return csvRows
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
