package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/jobcode"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/service/mappers"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
)

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("job opening service", Ordered, func() {
	var (
		s       store.Store
		cleanup func()
		srv     *service.JobOpeningService
	)

	BeforeAll(func() {
		s, cleanup = newTestStore()
		srv = service.NewJobOpeningService(s, jobcode.NewGenerator(s.JobOpening()))
	})

	AfterAll(func() {
		cleanup()
	})

	Context("create", func() {
		It("assigns a job code and cleans the skills", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{
				CompanyID:      "acme",
				Title:          "  Platform Engineer ",
				RequiredSkills: []string{" go", "kubernetes", "go ", ""},
			})
			Expect(err).To(BeNil())
			Expect(jobcode.Valid(job.Code())).To(BeTrue())
			Expect(job.Title).To(Equal("Platform Engineer"))
			Expect(job.RequiredSkills.Data).To(Equal([]string{"go", "kubernetes"}))
			Expect(job.Status).To(Equal(model.JobOpeningStatusActive))
		})

		It("issues distinct codes", func() {
			codes := map[string]bool{}
			for i := 0; i < 10; i++ {
				job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{
					CompanyID:   "acme",
					Title:       "Engineer",
					Description: "Writes code",
				})
				Expect(err).To(BeNil())
				codes[job.Code()] = true
			}
			Expect(codes).To(HaveLen(10))
		})

		It("requires a title", func() {
			_, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Description: "x"})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("requires a description or required skills", func() {
			_, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Title: "Engineer"})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("cleans blank nice to have skills", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{
				CompanyID:        "acme",
				Title:            "Engineer",
				RequiredSkills:   []string{"go"},
				NiceToHaveSkills: []string{"  ", "terraform ", "", "terraform"},
			})
			Expect(err).To(BeNil())
			Expect(job.NiceToHaveSkills.Data).To(Equal([]string{"terraform"}))
		})

		It("treats blank-only skills as missing", func() {
			_, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{
				CompanyID:      "acme",
				Title:          "Engineer",
				RequiredSkills: []string{" ", ""},
			})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("rejects a salary range upside down", func() {
			_, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{
				CompanyID:   "acme",
				Title:       "Engineer",
				Description: "x",
				SalaryMin:   ptr(100),
				SalaryMax:   ptr(50),
			})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	Context("update", func() {
		It("keeps the job code", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Title: "Engineer", Description: "x"})
			Expect(err).To(BeNil())

			updated, err := srv.UpdateJobOpening(context.TODO(), job.ID, mappers.JobOpeningUpdateForm{Title: ptr("Senior Engineer")})
			Expect(err).To(BeNil())
			Expect(updated.Title).To(Equal("Senior Engineer"))
			Expect(updated.Code()).To(Equal(job.Code()))
		})

		It("cleans the updated skills", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Title: "Engineer", Description: "x"})
			Expect(err).To(BeNil())

			skills := []string{"", " rust", "rust", "go "}
			updated, err := srv.UpdateJobOpening(context.TODO(), job.ID, mappers.JobOpeningUpdateForm{RequiredSkills: &skills})
			Expect(err).To(BeNil())
			Expect(updated.RequiredSkills.Data).To(Equal([]string{"rust", "go"}))
		})

		It("returns not found for an unknown opening", func() {
			_, err := srv.UpdateJobOpening(context.TODO(), uuid.New(), mappers.JobOpeningUpdateForm{Title: ptr("x")})
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Context("close and delete", func() {
		It("closed openings refuse new resumes", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Title: "Engineer", Description: "x"})
			Expect(err).To(BeNil())

			closed, err := srv.CloseJobOpening(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(closed.Status).To(Equal(model.JobOpeningStatusClosed))

			_, err = service.NewResumeService(s).SubmitResume(context.TODO(), mappers.ResumeCreateForm{
				JobID:       job.ID,
				CandidateID: "c-1",
				FileRef:     "resume.pdf",
			})
			var closedErr *service.ErrJobOpeningClosed
			Expect(errors.As(err, &closedErr)).To(BeTrue())
		})

		It("hides deleted openings", func() {
			job, err := srv.CreateJobOpening(context.TODO(), mappers.JobOpeningCreateForm{CompanyID: "acme", Title: "Engineer", Description: "x"})
			Expect(err).To(BeNil())

			Expect(srv.DeleteJobOpening(context.TODO(), job.ID)).To(Succeed())

			_, err = srv.GetJobOpening(context.TODO(), job.ID)
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())

			exists, err := s.JobOpening().CodeExists(context.TODO(), job.Code())
			Expect(err).To(BeNil())
			Expect(exists).To(BeTrue())
		})
	})
})

var _ = Describe("resume service", Ordered, func() {
	var (
		s       store.Store
		cleanup func()
		srv     *service.ResumeService
	)

	BeforeAll(func() {
		s, cleanup = newTestStore()
		srv = service.NewResumeService(s)
	})

	AfterAll(func() {
		cleanup()
	})

	It("submits a resume in the screening stage", func() {
		job := seedJob(s, "go")

		resume, err := srv.SubmitResume(context.TODO(), mappers.ResumeCreateForm{
			JobID:         job.ID,
			CandidateID:   "c-1",
			CandidateName: "Ada",
			FileRef:       "resumes/ada.pdf",
		})
		Expect(err).To(BeNil())
		Expect(resume.Status).To(Equal(model.ResumeStatusUploaded))
		Expect(resume.PipelineStage).To(Equal("screening"))

		list, err := srv.ListResumes(context.TODO(), job.ID, "screening")
		Expect(err).To(BeNil())
		Expect(list).To(HaveLen(1))
	})

	It("requires a job id", func() {
		_, err := srv.SubmitResume(context.TODO(), mappers.ResumeCreateForm{CandidateID: "c-1", FileRef: "x.pdf"})
		var invalid *service.ErrInvalidRequest
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})

	It("rejects an unknown job", func() {
		_, err := srv.SubmitResume(context.TODO(), mappers.ResumeCreateForm{JobID: uuid.New(), CandidateID: "c-1", FileRef: "x.pdf"})
		var invalid *service.ErrInvalidRequest
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})

	It("deletes a resume", func() {
		job := seedJob(s, "go")
		resume := seedResume(s, job.ID, "a.pdf")

		Expect(srv.DeleteResume(context.TODO(), resume.ID)).To(Succeed())

		_, err := srv.GetResume(context.TODO(), resume.ID)
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})
})
