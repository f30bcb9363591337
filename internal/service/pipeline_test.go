package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/events"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
)

var _ = Describe("pipeline service", Ordered, func() {
	var (
		s         store.Store
		cleanup   func()
		publisher *testPublisher
		srv       *service.PipelineService
	)

	BeforeAll(func() {
		s, cleanup = newTestStore()
	})

	AfterAll(func() {
		cleanup()
	})

	BeforeEach(func() {
		publisher = &testPublisher{}
		srv = service.NewPipelineService(s, publisher)
	})

	screened := func(status string) *model.Resume {
		job := seedJob(s, "go")
		resume := seedResume(s, job.ID, "a.pdf")
		Expect(s.Resume().UpdateScoring(context.TODO(), resume.ID, store.ResumeScoring{AIScore: 70, Status: status})).To(Succeed())
		return resume
	}

	It("advances a screened resume one stage at a time", func() {
		resume := screened(model.ResumeStatusScreenedIn)

		moved, err := srv.Advance(context.TODO(), resume.ID, pipeline.StageAssessment, "recruiter")
		Expect(err).To(BeNil())
		Expect(moved.PipelineStage).To(Equal("assessment"))

		moved, err = srv.Advance(context.TODO(), resume.ID, pipeline.StageInterview, "recruiter")
		Expect(err).To(BeNil())
		Expect(moved.PipelineStage).To(Equal("interview"))

		history, err := srv.History(context.TODO(), resume.ID)
		Expect(err).To(BeNil())
		Expect(history).To(HaveLen(2))
		Expect(history[0].FromStage).To(Equal("screening"))
		Expect(history[1].ToStage).To(Equal("interview"))

		Expect(publisher.Kinds()).To(Equal([]string{events.StageChangedKind, events.StageChangedKind}))
		ev := publisher.Payloads(events.StageChangedKind)[1].(events.StageChangedEvent)
		Expect(ev.FromStage).To(Equal("assessment"))
		Expect(ev.Actor).To(Equal("recruiter"))
	})

	It("advances to the next stage when none is given", func() {
		resume := screened(model.ResumeStatusScreenedIn)

		moved, err := srv.Advance(context.TODO(), resume.ID, "", "recruiter")
		Expect(err).To(BeNil())
		Expect(moved.PipelineStage).To(Equal("assessment"))

		_, err = srv.Skip(context.TODO(), resume.ID, pipeline.StageHired, "recruiter", "fast track")
		Expect(err).To(BeNil())

		_, err = srv.Advance(context.TODO(), resume.ID, "", "recruiter")
		Expect(errors.Is(err, pipeline.ErrInvalidTransition)).To(BeTrue())
	})

	It("refuses to leave screening before the resume is screened", func() {
		job := seedJob(s, "go")
		resume := seedResume(s, job.ID, "a.pdf")

		_, err := srv.Advance(context.TODO(), resume.ID, pipeline.StageAssessment, "recruiter")
		Expect(errors.Is(err, pipeline.ErrInvalidTransition)).To(BeTrue())
		Expect(errors.Is(err, pipeline.ErrNotScreened)).To(BeTrue())
		Expect(publisher.Kinds()).To(BeEmpty())
	})

	It("refuses to advance past the next stage without skip", func() {
		resume := screened(model.ResumeStatusScreenedIn)

		_, err := srv.Advance(context.TODO(), resume.ID, pipeline.StageOffer, "recruiter")
		Expect(errors.Is(err, pipeline.ErrInvalidTransition)).To(BeTrue())

		moved, err := srv.Skip(context.TODO(), resume.ID, pipeline.StageOffer, "recruiter", "referral")
		Expect(err).To(BeNil())
		Expect(moved.PipelineStage).To(Equal("offer"))

		history, err := srv.History(context.TODO(), resume.ID)
		Expect(err).To(BeNil())
		Expect(history).To(HaveLen(1))
		Expect(history[0].Skip).To(BeTrue())
		Expect(history[0].Reason).To(Equal("referral"))
	})

	It("rejects from screening without a score", func() {
		job := seedJob(s, "go")
		resume := seedResume(s, job.ID, "a.pdf")

		moved, err := srv.Reject(context.TODO(), resume.ID, "recruiter", "not a fit")
		Expect(err).To(BeNil())
		Expect(moved.PipelineStage).To(Equal("rejected"))

		_, err = srv.Advance(context.TODO(), resume.ID, pipeline.StageAssessment, "recruiter")
		Expect(errors.Is(err, pipeline.ErrInvalidTransition)).To(BeTrue())
	})

	It("moves from the stage current at move time", func() {
		resume := screened(model.ResumeStatusScreenedOut)

		// the stage changes behind the service's back
		Expect(s.Resume().UpdateStage(context.TODO(), resume.ID, "screening", "assessment")).To(Succeed())

		_, err := srv.Advance(context.TODO(), resume.ID, pipeline.StageInterview, "recruiter")
		Expect(err).To(BeNil())

		history, err := srv.History(context.TODO(), resume.ID)
		Expect(err).To(BeNil())
		Expect(history).To(HaveLen(1))
		Expect(history[0].FromStage).To(Equal("assessment"))
	})

	It("returns not found for an unknown resume", func() {
		_, err := srv.Advance(context.TODO(), uuid.New(), pipeline.StageAssessment, "recruiter")
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())

		_, err = srv.History(context.TODO(), uuid.New())
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})
})

