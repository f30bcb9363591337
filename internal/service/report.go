package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/service/report"
	"github.com/recruitly/screening-engine/internal/service/report/csv"
	"github.com/recruitly/screening-engine/internal/service/report/types"
	"github.com/recruitly/screening-engine/internal/service/report/xlsx"
	"github.com/recruitly/screening-engine/internal/store"
)

type ReportFormat = types.ReportFormat

const (
	ReportFormatCSV  = types.ReportFormatCSV
	ReportFormatXLSX = types.ReportFormatXLSX
)

// RenderedReport is a report ready to be served.
type RenderedReport struct {
	Content     []byte
	ContentType string
	Filename    string
}

type ReportService struct {
	store     store.Store
	processor types.RunProcessor
	renderers map[types.ReportFormat]types.ReportRenderer
}

func NewReportService(st store.Store) *ReportService {
	service := &ReportService{
		store:     st,
		processor: report.NewStandardRunProcessor(),
		renderers: make(map[types.ReportFormat]types.ReportRenderer),
	}

	csvRenderer := csv.NewRenderer()
	xlsxRenderer := xlsx.NewRenderer()

	service.renderers[csvRenderer.SupportedFormat()] = csvRenderer
	service.renderers[xlsxRenderer.SupportedFormat()] = xlsxRenderer

	return service
}

func (r *ReportService) GenerateRunReport(ctx context.Context, runID uuid.UUID, format ReportFormat) (*RenderedReport, error) {
	renderer, exists := r.renderers[format]
	if !exists {
		return nil, NewErrInvalidRequest("unsupported report format: %s", format)
	}

	run, err := r.store.ScreenRun().Get(ctx, runID)
	if err != nil {
		if err == store.ErrRecordNotFound {
			return nil, NewErrRunNotFound(runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	// the job may be deleted since; the report is still produced
	job, err := r.store.JobOpening().Get(ctx, run.JobID)
	if err != nil && err != store.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to get job opening: %w", err)
	}

	data, err := r.processor.ProcessRun(job, run)
	if err != nil {
		return nil, fmt.Errorf("failed to process run: %w", err)
	}

	content, err := renderer.Render(data)
	if err != nil {
		return nil, err
	}

	return &RenderedReport{
		Content:     content,
		ContentType: renderer.ContentType(),
		Filename:    fmt.Sprintf("screening-run-%s.%s", runID, format),
	}, nil
}
