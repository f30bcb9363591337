package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/aggregation"
	"github.com/recruitly/screening-engine/internal/content"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("report service", Ordered, func() {
	var (
		s       store.Store
		cleanup func()
		runID   uuid.UUID
		srv     *service.ReportService
	)

	BeforeAll(func() {
		s, cleanup = newTestStore()

		agg, err := aggregation.New()
		Expect(err).To(BeNil())

		job := seedJob(s, "go")
		a := seedResume(s, job.ID, "a.pdf")
		b := seedResume(s, job.ID, "b.pdf")
		c := seedResume(s, job.ID, "c.pdf")

		screening := service.NewScreeningService(s,
			fakeScorer(map[string]float64{"a": 85, "b": 30}),
			content.NewMemoryFetcher(map[string]string{"a.pdf": "a", "b.pdf": "b", "c.pdf": "c"}),
			agg,
			service.WithScoringTimeout(50*time.Millisecond),
		)
		runID, err = screening.StartRun(context.TODO(), job.ID, []uuid.UUID{a.ID, b.ID, c.ID})
		Expect(err).To(BeNil())
		waitForRun(screening, runID)

		srv = service.NewReportService(s)
	})

	AfterAll(func() {
		cleanup()
	})

	It("renders one csv row per result, best score first", func() {
		report, err := srv.GenerateRunReport(context.TODO(), runID, service.ReportFormatCSV)
		Expect(err).To(BeNil())
		Expect(report.ContentType).To(Equal("text/csv"))
		Expect(report.Filename).To(HaveSuffix(".csv"))

		r := csv.NewReader(bytes.NewReader(report.Content))
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		Expect(err).To(BeNil())

		header := -1
		for i, row := range rows {
			if len(row) > 0 && row[0] == "Resume ID" {
				header = i
			}
		}
		Expect(header).To(BeNumerically(">", 0))

		results := rows[header+1:]
		Expect(results).To(HaveLen(3))
		Expect(results[0][3]).To(Equal("85.0"))
		Expect(results[0][4]).To(Equal(aggregation.FitStrong))
		Expect(results[1][3]).To(Equal("30.0"))
		Expect(results[2][11]).To(Equal(service.ItemErrorTimeout))
	})

	It("renders an xlsx workbook", func() {
		report, err := srv.GenerateRunReport(context.TODO(), runID, service.ReportFormatXLSX)
		Expect(err).To(BeNil())

		f, err := excelize.OpenReader(bytes.NewReader(report.Content))
		Expect(err).To(BeNil())
		defer f.Close()

		rows, err := f.GetRows("Results")
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(4))
		Expect(rows[0][0]).To(Equal("Resume ID"))

		summary, err := f.GetRows("Summary")
		Expect(err).To(BeNil())
		Expect(summary).NotTo(BeEmpty())
	})

	It("rejects an unknown format", func() {
		_, err := srv.GenerateRunReport(context.TODO(), runID, "pdf")
		var invalid *service.ErrInvalidRequest
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})

	It("returns not found for an unknown run", func() {
		_, err := srv.GenerateRunReport(context.TODO(), uuid.New(), service.ReportFormatCSV)
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})
})
