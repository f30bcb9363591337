package store_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"gorm.io/gorm"
)

const (
	insertJobOpeningStm = "INSERT INTO job_openings (id, created_at, company_id, title, required_skills, nice_to_have_skills, job_code, status, deleted) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', '[]', '[]', '%s', 'active', %t);"
)

var _ = Describe("job opening store", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		cleanup func()
	)

	BeforeAll(func() {
		s, gormdb, cleanup = newTestStore()
	})

	AfterAll(func() {
		cleanup()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM job_openings;")
	})

	Context("create", func() {
		It("successfully creates a job opening", func() {
			code := "1234567"
			job, err := s.JobOpening().Create(context.TODO(), model.JobOpening{
				CompanyID:      "acme",
				Title:          "Backend engineer",
				RequiredSkills: model.MakeStringList([]string{"go", "postgres"}),
				JobCode:        &code,
			})
			Expect(err).To(BeNil())
			Expect(job.ID).ToNot(Equal(uuid.Nil))
			Expect(job.Status).To(Equal(model.JobOpeningStatusActive))

			got, err := s.JobOpening().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Code()).To(Equal("1234567"))
			Expect(got.RequiredSkills.Data).To(ConsistOf("go", "postgres"))
		})

		It("fails with duplicate key when the job code is taken", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, uuid.New(), "acme", "first", "7654321", false))
			Expect(tx.Error).To(BeNil())

			code := "7654321"
			_, err := s.JobOpening().Create(context.TODO(), model.JobOpening{CompanyID: "acme", Title: "second", JobCode: &code})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})
	})

	Context("code exists", func() {
		It("sees codes of soft-deleted openings", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, uuid.New(), "acme", "gone", "5555555", true))
			Expect(tx.Error).To(BeNil())

			exists, err := s.JobOpening().CodeExists(context.TODO(), "5555555")
			Expect(err).To(BeNil())
			Expect(exists).To(BeTrue())

			exists, err = s.JobOpening().CodeExists(context.TODO(), "5555556")
			Expect(err).To(BeNil())
			Expect(exists).To(BeFalse())
		})
	})

	Context("list", func() {
		It("hides soft-deleted openings unless asked", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, uuid.New(), "acme", "live", "1111111", false))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, uuid.New(), "acme", "gone", "2222222", true))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, uuid.New(), "other", "elsewhere", "3333333", false))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.JobOpening().List(context.TODO(), store.NewJobOpeningQueryFilter().ByCompanyID("acme"), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("live"))

			jobs, err = s.JobOpening().List(context.TODO(), store.NewJobOpeningQueryFilter().ByCompanyID("acme").WithDeleted(), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
		})
	})

	Context("update", func() {
		It("never rewrites the job code", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, id, "acme", "old title", "4444444", false))
			Expect(tx.Error).To(BeNil())

			other := "9999999"
			updated, err := s.JobOpening().Update(context.TODO(), model.JobOpening{ID: id, Title: "new title", Status: model.JobOpeningStatusActive, JobCode: &other})
			Expect(err).To(BeNil())
			Expect(updated.Title).To(Equal("new title"))
			Expect(updated.Code()).To(Equal("4444444"))
		})

		It("fails to update a missing opening", func() {
			_, err := s.JobOpening().Update(context.TODO(), model.JobOpening{ID: uuid.New(), Title: "x"})
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("soft delete", func() {
		It("flags the opening and keeps the row", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, id, "acme", "to delete", "6666666", false))
			Expect(tx.Error).To(BeNil())

			Expect(s.JobOpening().SoftDelete(context.TODO(), id)).To(BeNil())

			job, err := s.JobOpening().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(job.Deleted).To(BeTrue())
			Expect(job.DeletedAt).ToNot(BeNil())

			err = s.JobOpening().SoftDelete(context.TODO(), id)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("screening metadata", func() {
		It("updates counters and timestamp", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobOpeningStm, id, "acme", "meta", "7777777", false))
			Expect(tx.Error).To(BeNil())

			at := time.Now()
			Expect(s.JobOpening().UpdateScreeningMetadata(context.TODO(), id, 5, 3, at)).To(BeNil())

			job, err := s.JobOpening().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(job.TotalResumes).To(Equal(5))
			Expect(job.ScreenedResumes).To(Equal(3))
			Expect(job.LastScreenedAt).ToNot(BeNil())
		})
	})
})
