package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	st "github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("Store", Ordered, func() {
	var (
		store   st.Store
		gormDB  *gorm.DB
		cleanup func()
	)

	BeforeAll(func() {
		store, gormDB, cleanup = newTestStore()
	})

	AfterAll(func() {
		cleanup()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM screen_runs;")
		gormDB.Exec("DELETE FROM resumes;")
		gormDB.Exec("DELETE FROM job_openings;")
	})

	Context("transaction", func() {
		It("insert a job opening successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			code := "2345678"
			job, err := store.JobOpening().Create(ctx, model.JobOpening{
				CompanyID: "acme",
				Title:     "SRE",
				JobCode:   &code,
			})
			Expect(job).ToNot(BeNil())
			Expect(err).To(BeNil())

			// commit
			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) FROM job_openings;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rollback a job opening successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			code := "3456789"
			job, err := store.JobOpening().Create(ctx, model.JobOpening{
				CompanyID: "acme",
				Title:     "SRE",
				JobCode:   &code,
			})
			Expect(job).ToNot(BeNil())
			Expect(err).To(BeNil())

			// visible in the same transaction
			jobs, err := store.JobOpening().List(ctx, st.NewJobOpeningQueryFilter(), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))

			// rollback
			_, cerr := st.Rollback(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) FROM job_openings;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})
	})

	Context("statistics", func() {
		It("counts entities by status without deleted rows", func() {
			ctx := context.TODO()

			active, closed, deleted := "4567890", "5678901", "6789012"
			job, err := store.JobOpening().Create(ctx, model.JobOpening{CompanyID: "acme", Title: "a", JobCode: &active})
			Expect(err).To(BeNil())
			_, err = store.JobOpening().Create(ctx, model.JobOpening{CompanyID: "acme", Title: "b", JobCode: &closed, Status: model.JobOpeningStatusClosed})
			Expect(err).To(BeNil())
			gone, err := store.JobOpening().Create(ctx, model.JobOpening{CompanyID: "acme", Title: "c", JobCode: &deleted})
			Expect(err).To(BeNil())
			Expect(store.JobOpening().SoftDelete(ctx, gone.ID)).To(Succeed())

			for _, ref := range []string{"a.pdf", "b.pdf"} {
				_, err := store.Resume().Create(ctx, model.Resume{ID: uuid.New(), JobID: job.ID, CandidateID: ref, FileRef: ref})
				Expect(err).To(BeNil())
			}

			_, err = store.ScreenRun().Create(ctx, model.ScreenRun{JobID: job.ID, Total: 2})
			Expect(err).To(BeNil())

			stats, err := store.Statistics(ctx)
			Expect(err).To(BeNil())
			Expect(stats.JobsByStatus).To(Equal(map[string]int64{
				model.JobOpeningStatusActive: 1,
				model.JobOpeningStatusClosed: 1,
			}))
			Expect(stats.ResumesByStatus).To(Equal(map[string]int64{model.ResumeStatusUploaded: 2}))
			Expect(stats.RunsByStatus).To(Equal(map[string]int64{model.ScreenRunStatusRunning: 1}))
		})
	})
})
