package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/aggregation"
	"github.com/recruitly/screening-engine/internal/content"
	"github.com/recruitly/screening-engine/internal/events"
	"github.com/recruitly/screening-engine/internal/scoring"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
)

func uniform(v float64) aggregation.SubScores {
	return aggregation.SubScores{Semantic: &v, SkillMatch: &v, Experience: &v, Metrics: &v, Complexity: &v}
}

// fakeScorer scores a resume by its text. Texts it does not know block until
// the call is cancelled.
func fakeScorer(scores map[string]float64) scoring.Client {
	return scoring.ClientFunc(func(ctx context.Context, req scoring.Request) (*scoring.Result, error) {
		v, ok := scores[req.ResumeText]
		if !ok {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &scoring.Result{
			SubScores:     uniform(v),
			MatchedSkills: []string{"go"},
			MissingSkills: []string{"rust"},
		}, nil
	})
}

// failingRecordStore fails every result write of a run.
type failingRecordStore struct {
	store.Store
}

func (f *failingRecordStore) ScreenRun() store.ScreenRun {
	return failingRecordRuns{ScreenRun: f.Store.ScreenRun()}
}

type failingRecordRuns struct {
	store.ScreenRun
}

func (failingRecordRuns) RecordResult(context.Context, model.ScreenRunResult, int, int) error {
	return errors.New("disk full")
}

func waitForRun(srv *service.ScreeningService, runID uuid.UUID) *model.ScreenRun {
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	Expect(srv.Wait(ctx, runID)).To(Succeed())

	run, err := srv.GetRun(context.TODO(), runID)
	Expect(err).To(BeNil())
	return run
}

var _ = Describe("screening service", Ordered, func() {
	var (
		s       store.Store
		cleanup func()
		agg     *aggregation.Aggregator
		fetcher *content.MemoryFetcher
	)

	BeforeAll(func() {
		s, cleanup = newTestStore()

		var err error
		agg, err = aggregation.New(aggregation.WithPassThreshold(60))
		Expect(err).To(BeNil())

		fetcher = content.NewMemoryFetcher(map[string]string{
			"strong.pdf": "strong",
			"weak.pdf":   "weak",
			"slow.pdf":   "slow",
		})
	})

	AfterAll(func() {
		cleanup()
	})

	Context("run", func() {
		It("processes every resume and completes the run", func() {
			job := seedJob(s, "go")
			strong := seedResume(s, job.ID, "strong.pdf")
			weak := seedResume(s, job.ID, "weak.pdf")
			slow := seedResume(s, job.ID, "slow.pdf")

			publisher := &testPublisher{}
			srv := service.NewScreeningService(s, fakeScorer(map[string]float64{"strong": 75, "weak": 40}), fetcher, agg,
				service.WithScoringTimeout(100*time.Millisecond),
				service.WithWorkers(2),
				service.WithEventPublisher(publisher),
			)

			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{strong.ID, weak.ID, slow.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusCompleted))
			Expect(run.Done).To(BeTrue())
			Expect(run.Total).To(Equal(3))
			Expect(run.Processed).To(Equal(3))
			Expect(run.ScreenedIn).To(Equal(1))
			Expect(run.ScreenedOut).To(Equal(1))
			Expect(run.FinishedAt).NotTo(BeNil())
			Expect(run.Results).To(HaveLen(3))

			var failed []model.ScreenRunResult
			for _, r := range run.Results {
				if r.Failed() {
					failed = append(failed, r)
				}
			}
			Expect(failed).To(HaveLen(1))
			Expect(failed[0].ResumeID).To(Equal(slow.ID))
			Expect(*failed[0].ErrorKind).To(Equal(service.ItemErrorTimeout))

			r, err := s.Resume().Get(context.TODO(), strong.ID)
			Expect(err).To(BeNil())
			Expect(r.Status).To(Equal(model.ResumeStatusScreenedIn))
			Expect(*r.AIScore).To(BeNumerically("~", 75, 1e-6))

			r, err = s.Resume().Get(context.TODO(), slow.ID)
			Expect(err).To(BeNil())
			Expect(r.MLError).NotTo(BeNil())

			j, err := s.JobOpening().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(j.TotalResumes).To(Equal(3))
			Expect(j.ScreenedResumes).To(Equal(2))
			Expect(j.LastScreenedAt).NotTo(BeNil())

			Expect(publisher.Kinds()).To(ConsistOf(events.RunStartedKind, events.RunFinishedKind))
			finished := publisher.Payloads(events.RunFinishedKind)[0].(events.RunFinishedEvent)
			Expect(finished.Status).To(Equal(model.ScreenRunStatusCompleted))
			Expect(finished.Processed).To(Equal(3))
		})

		It("deduplicates resume ids", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")
			other := seedResume(s, job.ID, "weak.pdf")

			srv := service.NewScreeningService(s, fakeScorer(map[string]float64{"strong": 90, "weak": 20}), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID, other.ID, resume.ID, other.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusCompleted))
			Expect(run.Total).To(Equal(2))
			Expect(run.Processed).To(Equal(2))
			Expect(run.ScreenedIn).To(Equal(1))
			Expect(run.ScreenedOut).To(Equal(1))
			Expect(run.Results).To(HaveLen(2))
		})

		It("starts a run over a single resume", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")

			srv := service.NewScreeningService(s, fakeScorer(map[string]float64{"strong": 90}), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Total).To(Equal(1))
			Expect(run.Results[0].FitLevel).To(Equal(aggregation.FitStrong))
		})

		It("records resumes of another job as not found", func() {
			job := seedJob(s, "go")
			other := seedJob(s, "go")
			foreign := seedResume(s, other.ID, "strong.pdf")

			srv := service.NewScreeningService(s, fakeScorer(map[string]float64{"strong": 90}), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{foreign.ID, uuid.New()})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusCompleted))
			Expect(run.Processed).To(Equal(2))
			Expect(run.ScreenedIn + run.ScreenedOut).To(Equal(0))
			for _, r := range run.Results {
				Expect(*r.ErrorKind).To(Equal(service.ItemErrorResumeNotFound))
			}
		})

		It("records missing content", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "missing.pdf")

			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Processed).To(Equal(1))
			Expect(*run.Results[0].ErrorKind).To(Equal(service.ItemErrorContentUnavailable))
		})

		It("records empty sub-scores as insufficient data", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")

			empty := scoring.ClientFunc(func(context.Context, scoring.Request) (*scoring.Result, error) {
				return &scoring.Result{}, nil
			})
			srv := service.NewScreeningService(s, empty, fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(*run.Results[0].ErrorKind).To(Equal(service.ItemErrorInsufficientData))
		})

		It("records provider failures as unavailable", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")

			broken := scoring.ClientFunc(func(context.Context, scoring.Request) (*scoring.Result, error) {
				return nil, errors.New("connection refused")
			})
			srv := service.NewScreeningService(s, broken, fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusCompleted))
			Expect(*run.Results[0].ErrorKind).To(Equal(service.ItemErrorUnavailable))
		})
	})

	Context("run faults", func() {
		It("fails the run when the job opening is deleted mid-run", func() {
			job := seedJob(s, "go")
			ids := []uuid.UUID{
				seedResume(s, job.ID, "strong.pdf").ID,
				seedResume(s, job.ID, "weak.pdf").ID,
				seedResume(s, job.ID, "strong.pdf").ID,
			}

			var once sync.Once
			deleting := scoring.ClientFunc(func(ctx context.Context, req scoring.Request) (*scoring.Result, error) {
				once.Do(func() {
					Expect(s.JobOpening().SoftDelete(context.TODO(), job.ID)).To(Succeed())
				})
				return &scoring.Result{SubScores: uniform(90)}, nil
			})

			srv := service.NewScreeningService(s, deleting, fetcher, agg, service.WithWorkers(1))
			runID, err := srv.StartRun(context.TODO(), job.ID, ids)
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusFailed))
			Expect(run.Done).To(BeTrue())
			Expect(run.Error).NotTo(BeNil())
			Expect(*run.Error).To(ContainSubstring("was deleted"))
			Expect(run.Processed).To(Equal(1))
			Expect(run.Total).To(Equal(3))
		})

		It("fails the run on a persistence fault", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")

			faulty := &failingRecordStore{Store: s}
			srv := service.NewScreeningService(faulty, fakeScorer(map[string]float64{"strong": 90}), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusFailed))
			Expect(run.Done).To(BeTrue())
			Expect(*run.Error).To(ContainSubstring("persistence fault while recording result"))
			Expect(run.Processed).To(Equal(0))
		})
	})

	Context("start", func() {
		It("rejects a nil resume id", func() {
			job := seedJob(s, "go")
			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)

			_, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{uuid.New(), uuid.Nil})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("rejects an empty resume list", func() {
			job := seedJob(s, "go")
			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)

			_, err := srv.StartRun(context.TODO(), job.ID, nil)
			Expect(err).NotTo(BeNil())
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("rejects an unknown job", func() {
			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)

			_, err := srv.StartRun(context.TODO(), uuid.New(), []uuid.UUID{uuid.New()})
			var invalid *service.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("rejects a second run when runs are exclusive", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "slow.pdf")

			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg,
				service.WithExclusiveRuns(true),
				service.WithScoringTimeout(time.Minute),
			)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			_, err = srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			var active *service.ErrRunAlreadyActive
			Expect(errors.As(err, &active)).To(BeTrue())

			Expect(srv.CancelRun(context.TODO(), runID)).To(Succeed())
			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusFailed))
		})
	})

	Context("cancel", func() {
		It("fails a running run with the cancel reason", func() {
			job := seedJob(s, "go")
			a := seedResume(s, job.ID, "slow.pdf")
			b := seedResume(s, job.ID, "slow.pdf")

			publisher := &testPublisher{}
			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg,
				service.WithWorkers(1),
				service.WithScoringTimeout(time.Minute),
				service.WithEventPublisher(publisher),
			)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{a.ID, b.ID})
			Expect(err).To(BeNil())

			Expect(srv.CancelRun(context.TODO(), runID)).To(Succeed())

			run := waitForRun(srv, runID)
			Expect(run.Status).To(Equal(model.ScreenRunStatusFailed))
			Expect(run.Done).To(BeTrue())
			Expect(*run.Error).To(Equal("run cancelled"))
			Expect(run.Processed).To(Equal(0))
			Expect(publisher.Payloads(events.RunFinishedKind)).To(HaveLen(1))
		})

		It("refuses to cancel a finished run", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "strong.pdf")

			srv := service.NewScreeningService(s, fakeScorer(map[string]float64{"strong": 70}), fetcher, agg)
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())
			waitForRun(srv, runID)

			err = srv.CancelRun(context.TODO(), runID)
			var finished *service.ErrRunFinished
			Expect(errors.As(err, &finished)).To(BeTrue())
		})

		It("returns not found for an unknown run", func() {
			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)

			err := srv.CancelRun(context.TODO(), uuid.New())
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Context("reap", func() {
		It("fails runs left behind by another instance", func() {
			job := seedJob(s, "go")
			orphan, err := s.ScreenRun().Create(context.TODO(), model.ScreenRun{JobID: job.ID, Total: 2})
			Expect(err).To(BeNil())

			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg)
			n, err := srv.ReapStaleRuns(context.TODO(), -time.Minute)
			Expect(err).To(BeNil())
			Expect(n).To(BeNumerically(">=", 1))

			run, err := srv.GetRun(context.TODO(), orphan.ID)
			Expect(err).To(BeNil())
			Expect(run.Status).To(Equal(model.ScreenRunStatusFailed))
			Expect(*run.Error).To(Equal("run interrupted"))

			n, err = srv.ReapStaleRuns(context.TODO(), -time.Minute)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(0))
		})

		It("leaves runs of this instance alone", func() {
			job := seedJob(s, "go")
			resume := seedResume(s, job.ID, "slow.pdf")

			srv := service.NewScreeningService(s, fakeScorer(nil), fetcher, agg, service.WithScoringTimeout(time.Minute))
			runID, err := srv.StartRun(context.TODO(), job.ID, []uuid.UUID{resume.ID})
			Expect(err).To(BeNil())

			_, err = srv.ReapStaleRuns(context.TODO(), -time.Minute)
			Expect(err).To(BeNil())

			run, err := srv.GetRun(context.TODO(), runID)
			Expect(err).To(BeNil())
			Expect(run.Done).To(BeFalse())

			ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
			defer cancel()
			Expect(srv.Shutdown(ctx)).To(Succeed())

			run, err = srv.GetRun(context.TODO(), runID)
			Expect(err).To(BeNil())
			Expect(*run.Error).To(Equal("run interrupted"))
		})
	})
})
