package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/aggregation"
	"github.com/recruitly/screening-engine/internal/content"
	"github.com/recruitly/screening-engine/internal/events"
	"github.com/recruitly/screening-engine/internal/scoring"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/log"
	"github.com/recruitly/screening-engine/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Error kinds recorded on failed run entries.
const (
	ItemErrorTimeout            = string(scoring.KindTimeout)
	ItemErrorUnavailable        = string(scoring.KindUnavailable)
	ItemErrorInvalidInput       = string(scoring.KindInvalidInput)
	ItemErrorInsufficientData   = "InsufficientData"
	ItemErrorContentUnavailable = "ContentUnavailable"
	ItemErrorResumeNotFound     = "ResumeNotFound"
)

const (
	DefaultWorkers        = 4
	DefaultScoringTimeout = 30 * time.Second

	runCancelledReason   = "run cancelled"
	runInterruptedReason = "run interrupted"
)

var errRunCancelled = errors.New(runCancelledReason)

// EventPublisher receives run lifecycle events. *events.EventProducer
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

type activeRun struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// ScreeningService runs screening runs. Every run is processed in the
// background by a bounded pool of workers and addressed by its ID.
type ScreeningService struct {
	store      store.Store
	scorer     scoring.Client
	fetcher    content.Fetcher
	aggregator *aggregation.Aggregator
	publisher  EventPublisher
	workers    int
	timeout    time.Duration
	exclusive  bool
	logger     *log.StructuredLogger

	mu     sync.Mutex
	active map[uuid.UUID]*activeRun
}

type ScreeningOption func(*ScreeningService)

func WithWorkers(n int) ScreeningOption {
	return func(s *ScreeningService) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScoringTimeout(d time.Duration) ScreeningOption {
	return func(s *ScreeningService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithExclusiveRuns rejects a new run while the job has one still running.
func WithExclusiveRuns(exclusive bool) ScreeningOption {
	return func(s *ScreeningService) {
		s.exclusive = exclusive
	}
}

func WithEventPublisher(p EventPublisher) ScreeningOption {
	return func(s *ScreeningService) {
		s.publisher = p
	}
}

func NewScreeningService(st store.Store, scorer scoring.Client, fetcher content.Fetcher, aggregator *aggregation.Aggregator, opts ...ScreeningOption) *ScreeningService {
	s := &ScreeningService{
		store:      st,
		fetcher:    fetcher,
		aggregator: aggregator,
		workers:    DefaultWorkers,
		timeout:    DefaultScoringTimeout,
		logger:     log.NewDebugLogger("screening_service"),
		active:     make(map[uuid.UUID]*activeRun),
	}
	for _, o := range opts {
		o(s)
	}
	s.scorer = scoring.WithTimeout(scorer, s.timeout)
	return s
}

// StartRun records a new run over the given resumes and starts processing it.
// It returns as soon as the run is persisted.
func (s *ScreeningService) StartRun(ctx context.Context, jobID uuid.UUID, resumeIDs []uuid.UUID) (uuid.UUID, error) {
	logger := s.logger.WithContext(ctx)
	tracer := logger.Operation("start_run").
		WithUUID("job_id", jobID).
		WithInt("requested", len(resumeIDs)).
		Build()

	if len(resumeIDs) == 0 {
		return uuid.Nil, NewErrInvalidRequest("at least one resume is required")
	}
	ids, err := uniqueResumeIDs(resumeIDs)
	if err != nil {
		return uuid.Nil, err
	}

	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		_, _ = store.Rollback(txCtx)
	}()

	job, err := s.store.JobOpening().Get(txCtx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return uuid.Nil, NewErrInvalidRequest("job opening %s does not exist", jobID)
		}
		return uuid.Nil, fmt.Errorf("failed to get job opening: %w", err)
	}
	if job.Deleted {
		return uuid.Nil, NewErrInvalidRequest("job opening %s does not exist", jobID)
	}

	if s.exclusive {
		running, err := s.store.ScreenRun().List(txCtx, store.NewScreenRunQueryFilter().ByJobID(jobID).NotDone(), nil)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to list runs: %w", err)
		}
		if len(running) > 0 {
			return uuid.Nil, NewErrRunAlreadyActive(jobID, running[0].ID)
		}
	}

	run, err := s.store.ScreenRun().Create(txCtx, model.ScreenRun{
		JobID:  jobID,
		Total:  len(ids),
		Status: model.ScreenRunStatusRunning,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return uuid.Nil, err
	}
	tracer.Step("run_created").WithUUID("run_id", run.ID).WithInt("total", run.Total).Log()

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	ar := &activeRun{cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	s.active[run.ID] = ar
	s.mu.Unlock()

	metrics.RunStarted()
	s.publish(ctx, events.RunStartedKind, events.RunStartedEvent{
		RunID:     run.ID,
		JobID:     jobID,
		Total:     run.Total,
		StartedAt: run.CreatedAt,
	})

	go s.process(runCtx, *run, ids, ar)

	tracer.Success().WithUUID("run_id", run.ID).Log()
	return run.ID, nil
}

// uniqueResumeIDs drops repeated ids, keeping the first occurrence order.
func uniqueResumeIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, NewErrInvalidRequest("resume ids must not be empty")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// GetRun returns the run with its result entries.
func (s *ScreeningService) GetRun(ctx context.Context, runID uuid.UUID) (*model.ScreenRun, error) {
	run, err := s.store.ScreenRun().Get(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrRunNotFound(runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs of a job, newest first, without result entries.
func (s *ScreeningService) ListRuns(ctx context.Context, jobID uuid.UUID) (model.ScreenRunList, error) {
	runs, err := s.store.ScreenRun().List(ctx, store.NewScreenRunQueryFilter().ByJobID(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// CancelRun stops dispatching new items of a running run and marks it
// failed. Items already recorded are kept.
func (s *ScreeningService) CancelRun(ctx context.Context, runID uuid.UUID) error {
	logger := s.logger.WithContext(ctx)
	tracer := logger.Operation("cancel_run").WithUUID("run_id", runID).Build()

	s.mu.Lock()
	ar, owned := s.active[runID]
	s.mu.Unlock()
	if owned {
		ar.cancel(errRunCancelled)
		tracer.Success().WithBool("owned", true).Log()
		return nil
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Done {
		return NewErrRunFinished(runID)
	}

	// run is not processed by this instance
	failed, err := s.store.ScreenRun().Fail(ctx, runID, runCancelledReason)
	if err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	if !failed {
		return NewErrRunFinished(runID)
	}
	s.runClosed(ctx, runID)

	tracer.Success().WithBool("owned", false).Log()
	return nil
}

// Wait blocks until the run processed by this instance is finished or ctx
// is done. It returns immediately for runs this instance does not process.
func (s *ScreeningService) Wait(ctx context.Context, runID uuid.UUID) error {
	s.mu.Lock()
	ar, ok := s.active[runID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-ar.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReapStaleRuns fails runs that are not done, not processed by this
// instance and were not updated since olderThan. It returns how many runs
// were failed.
func (s *ScreeningService) ReapStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	runs, err := s.store.ScreenRun().List(ctx, store.NewScreenRunQueryFilter().NotDone().UpdatedBefore(cutoff), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale runs: %w", err)
	}

	reaped := 0
	for _, run := range runs {
		if s.owns(run.ID) {
			continue
		}
		failed, err := s.store.ScreenRun().Fail(ctx, run.ID, runInterruptedReason)
		if err != nil {
			return reaped, fmt.Errorf("failed to fail run %s: %w", run.ID, err)
		}
		if failed {
			reaped++
			s.runClosed(ctx, run.ID)
		}
	}
	return reaped, nil
}

// Shutdown cancels every run processed by this instance and waits for them
// to be closed.
func (s *ScreeningService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	runs := make([]*activeRun, 0, len(s.active))
	for _, ar := range s.active {
		runs = append(runs, ar)
	}
	s.mu.Unlock()

	for _, ar := range runs {
		ar.cancel(errors.New(runInterruptedReason))
	}
	for _, ar := range runs {
		select {
		case <-ar.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *ScreeningService) owns(runID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[runID]
	return ok
}

func (s *ScreeningService) process(ctx context.Context, run model.ScreenRun, ids []uuid.UUID, ar *activeRun) {
	logger := s.logger.WithContext(ctx)
	tracer := logger.Operation("process_run").
		WithUUID("run_id", run.ID).
		WithUUID("job_id", run.JobID).
		WithInt("total", run.Total).
		WithInt("workers", s.workers).
		Build()

	defer func() {
		s.mu.Lock()
		delete(s.active, run.ID)
		s.mu.Unlock()
		ar.cancel(nil)
		metrics.RunFinished()
		close(ar.done)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return s.screenOne(gctx, run, id)
		})
	}
	err := g.Wait()

	// the run context may be cancelled at this point
	closeCtx := context.WithoutCancel(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		reason := err.Error()
		if cause := context.Cause(ctx); cause != nil && ctx.Err() != nil {
			reason = cause.Error()
		}
		if errors.Is(err, store.ErrRunFinished) {
			// closed elsewhere, e.g. by the reaper of another instance
			tracer.Step("run_closed_externally").Log()
			return
		}
		if _, ferr := s.store.ScreenRun().Fail(closeCtx, run.ID, reason); ferr != nil {
			tracer.Error(ferr).WithString("reason", reason).Log()
			return
		}
		tracer.Error(err).WithString("reason", reason).Log()
		s.runClosed(closeCtx, run.ID)
		return
	}

	// the last item completes the run; this covers a run closed by nobody
	completed, cerr := s.store.ScreenRun().Complete(closeCtx, run.ID)
	if cerr != nil {
		tracer.Error(cerr).Log()
	}
	if completed {
		tracer.Step("completed_after_wait").Log()
	}
	s.runClosed(closeCtx, run.ID)
	tracer.Success().Log()
}

// runClosed emits the metrics and the event of a run that reached a final
// state.
func (s *ScreeningService) runClosed(ctx context.Context, runID uuid.UUID) {
	run, err := s.store.ScreenRun().List(ctx, store.NewScreenRunQueryFilter().ByID(runID), nil)
	if err != nil || len(run) == 0 || !run[0].Done {
		return
	}
	r := run[0]
	metrics.IncreaseRunsTotalMetric(r.Status)

	ev := events.RunFinishedEvent{
		RunID:       r.ID,
		JobID:       r.JobID,
		Status:      r.Status,
		Total:       r.Total,
		Processed:   r.Processed,
		ScreenedIn:  r.ScreenedIn,
		ScreenedOut: r.ScreenedOut,
		FinishedAt:  time.Now(),
	}
	if r.Error != nil {
		ev.Error = *r.Error
	}
	if r.FinishedAt != nil {
		ev.FinishedAt = *r.FinishedAt
	}
	s.publish(ctx, events.RunFinishedKind, ev)
}

func (s *ScreeningService) publish(ctx context.Context, kind string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, kind, payload); err != nil {
		s.logger.WithContext(ctx).Operation("publish_event").WithString("kind", kind).Build().Error(err).Log()
	}
}

// screenOne processes a single resume. Item failures are recorded on the
// run; only faults that must stop the run are returned.
func (s *ScreeningService) screenOne(ctx context.Context, run model.ScreenRun, resumeID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job, err := s.store.JobOpening().Get(ctx, run.JobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return fmt.Errorf("job opening %s no longer exists", run.JobID)
		}
		return NewErrPersistenceFault("loading job opening", err)
	}
	if job.Deleted {
		return fmt.Errorf("job opening %s was deleted", run.JobID)
	}

	entry := model.ScreenRunResult{RunID: run.ID, ResumeID: resumeID}

	resume, err := s.store.Resume().Get(ctx, resumeID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return NewErrPersistenceFault("loading resume", err)
	}
	if resume == nil || resume.JobID != job.ID {
		return s.recordFailure(ctx, run.JobID, entry, false, ItemErrorResumeNotFound, fmt.Sprintf("resume %s not found for job opening %s", resumeID, job.ID))
	}
	entry.CandidateID = resume.CandidateID
	entry.CandidateName = resume.CandidateName

	text, err := s.fetcher.Fetch(ctx, resume.FileRef)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.recordFailure(ctx, run.JobID, entry, true, ItemErrorContentUnavailable, err.Error())
	}

	start := time.Now()
	result, err := s.scorer.Score(ctx, scoring.Request{
		JobTitle:              job.Title,
		JobDescription:        job.Description,
		RequiredSkills:        job.RequiredSkills.Data,
		NiceToHaveSkills:      job.NiceToHaveSkills.Data,
		ExperienceRequirement: job.ExperienceRequirement,
		ResumeText:            text,
	})
	metrics.ObserveScoringDuration(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.recordFailure(ctx, run.JobID, entry, true, string(scoring.KindOf(err)), err.Error())
	}

	entry.MatchedSkills = model.MakeStringList(result.MatchedSkills)
	entry.MissingSkills = model.MakeStringList(result.MissingSkills)
	entry.RedFlags = model.MakeStringList(result.RedFlags)
	entry.StrongSignals = model.MakeStringList(result.StrongSignals)
	entry.Concerns = model.MakeStringList(result.Concerns)

	outcome, err := s.aggregator.Aggregate(result.SubScores)
	if err != nil {
		kind := ItemErrorInvalidInput
		if errors.Is(err, aggregation.ErrInsufficientData) {
			kind = ItemErrorInsufficientData
		}
		return s.recordFailure(ctx, run.JobID, entry, true, kind, err.Error())
	}

	composite := outcome.Composite
	s.logger.WithContext(ctx).Operation("aggregate").
		WithUUID("run_id", run.ID).
		WithUUID("resume_id", resumeID).
		WithString("components", strings.Join(outcome.Used, ",")).
		Build().
		Success().WithFloat("composite", composite).WithString("fit_level", outcome.FitLevel).Log()
	entry.Score = &composite
	entry.FitLevel = outcome.FitLevel
	entry.Status = outcome.Status

	screenedIn, screenedOut := 0, 1
	if outcome.ScreenedIn() {
		screenedIn, screenedOut = 1, 0
	}

	scores := result.SubScores
	return s.persist(ctx, run.JobID, entry, screenedIn, screenedOut, func(txCtx context.Context) error {
		return s.store.Resume().UpdateScoring(txCtx, resumeID, store.ResumeScoring{
			AIScore:         composite,
			SemanticScore:   scores.Semantic,
			SkillMatchScore: scores.SkillMatch,
			ExperienceScore: scores.Experience,
			MetricsScore:    scores.Metrics,
			ComplexityScore: scores.Complexity,
			MatchedSkills:   result.MatchedSkills,
			MissingSkills:   result.MissingSkills,
			Status:          outcome.Status,
		})
	})
}

func (s *ScreeningService) recordFailure(ctx context.Context, jobID uuid.UUID, entry model.ScreenRunResult, markResume bool, kind, message string) error {
	entry.ErrorKind = &kind
	entry.Error = &message

	var update func(context.Context) error
	if markResume {
		update = func(txCtx context.Context) error {
			return s.store.Resume().SetMLError(txCtx, entry.ResumeID, message)
		}
	}
	return s.persist(ctx, jobID, entry, 0, 0, update)
}

// persist writes the resume update, the entry and the counters in one
// transaction. The item that brings processed to total also completes the
// run and refreshes the job's screening metadata.
func (s *ScreeningService) persist(ctx context.Context, jobID uuid.UUID, entry model.ScreenRunResult, screenedIn, screenedOut int, updateResume func(context.Context) error) error {
	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return NewErrPersistenceFault("opening transaction", err)
	}
	defer func() {
		_, _ = store.Rollback(txCtx)
	}()

	if updateResume != nil {
		if err := updateResume(txCtx); err != nil {
			if !errors.Is(err, store.ErrRecordNotFound) {
				return NewErrPersistenceFault("updating resume", err)
			}
			// resume deleted while it was being scored
			kind, message := ItemErrorResumeNotFound, fmt.Sprintf("resume %s was deleted", entry.ResumeID)
			entry.ErrorKind, entry.Error = &kind, &message
			entry.Score, entry.FitLevel, entry.Status = nil, "", ""
			screenedIn, screenedOut = 0, 0
		}
	}

	if err := s.store.ScreenRun().RecordResult(txCtx, entry, screenedIn, screenedOut); err != nil {
		if errors.Is(err, store.ErrRunFinished) {
			return err
		}
		return NewErrPersistenceFault("recording result", err)
	}

	completed, err := s.store.ScreenRun().Complete(txCtx, entry.RunID)
	if err != nil {
		return NewErrPersistenceFault("completing run", err)
	}
	if completed {
		if err := s.refreshJobMetadata(txCtx, jobID); err != nil {
			return err
		}
	}

	if _, err := store.Commit(txCtx); err != nil {
		return NewErrPersistenceFault("committing result", err)
	}

	outcome := entry.Status
	if entry.ErrorKind != nil {
		outcome = *entry.ErrorKind
	}
	metrics.IncreaseItemsTotalMetric(outcome)
	return nil
}

func (s *ScreeningService) refreshJobMetadata(ctx context.Context, jobID uuid.UUID) error {
	total, screened, err := s.store.Resume().CountByJob(ctx, jobID)
	if err != nil {
		return NewErrPersistenceFault("counting resumes", err)
	}
	if err := s.store.JobOpening().UpdateScreeningMetadata(ctx, jobID, int(total), int(screened), time.Now()); err != nil {
		return NewErrPersistenceFault("updating job screening metadata", err)
	}
	return nil
}
