package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/events"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/log"
)

// PipelineService moves resumes through the hiring stages and keeps the
// audit trail of every accepted move.
type PipelineService struct {
	store     store.Store
	tracker   *pipeline.Tracker
	publisher EventPublisher
	logger    *log.StructuredLogger
}

func NewPipelineService(st store.Store, publisher EventPublisher) *PipelineService {
	return &PipelineService{
		store:     st,
		tracker:   pipeline.NewTracker(),
		publisher: publisher,
		logger:    log.NewDebugLogger("pipeline_service"),
	}
}

// Advance moves the resume to the adjacent forward stage to. An empty to
// means the stage after the current one.
func (ps *PipelineService) Advance(ctx context.Context, resumeID uuid.UUID, to pipeline.Stage, actor string) (*model.Resume, error) {
	return ps.move(ctx, resumeID, to, false, actor, "")
}

// Skip moves the resume forward past one or more stages.
func (ps *PipelineService) Skip(ctx context.Context, resumeID uuid.UUID, to pipeline.Stage, actor, reason string) (*model.Resume, error) {
	return ps.move(ctx, resumeID, to, true, actor, reason)
}

func (ps *PipelineService) Reject(ctx context.Context, resumeID uuid.UUID, actor, reason string) (*model.Resume, error) {
	return ps.move(ctx, resumeID, pipeline.StageRejected, false, actor, reason)
}

// History lists the accepted moves of a resume, oldest first.
func (ps *PipelineService) History(ctx context.Context, resumeID uuid.UUID) (model.StageTransitionList, error) {
	if _, err := ps.store.Resume().Get(ctx, resumeID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrResumeNotFound(resumeID)
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	transitions, err := ps.store.StageTransition().ListByResume(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage transitions: %w", err)
	}
	return transitions, nil
}

func (ps *PipelineService) move(ctx context.Context, resumeID uuid.UUID, to pipeline.Stage, skip bool, actor, reason string) (*model.Resume, error) {
	logger := ps.logger.WithContext(ctx)
	tracer := logger.Operation("move_stage").
		WithUUID("resume_id", resumeID).
		WithString("to", to.String()).
		WithBool("skip", skip).
		WithString("actor", actor).
		Build()

	txCtx, err := ps.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(txCtx)
	}()

	resume, err := ps.store.Resume().Get(txCtx, resumeID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrResumeNotFound(resumeID)
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	from, err := pipeline.ParseStage(resume.PipelineStage)
	if err != nil {
		return nil, err
	}
	if to == "" {
		next, ok := from.Next()
		if !ok {
			return nil, fmt.Errorf("%w: %s has no next stage", pipeline.ErrInvalidTransition, from)
		}
		to = next
	}

	if err := ps.tracker.Validate(pipeline.Move{
		ResumeStatus: resume.Status,
		From:         from,
		To:           to,
		Skip:         skip,
	}); err != nil {
		tracer.Error(err).WithString("from", from.String()).Log()
		return nil, err
	}

	if err := ps.store.Resume().UpdateStage(txCtx, resumeID, from.String(), to.String()); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// moved by someone else since it was read
			return nil, fmt.Errorf("%w: %s -> %s: stage changed concurrently", pipeline.ErrInvalidTransition, from, to)
		}
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}

	if _, err := ps.store.StageTransition().Create(txCtx, model.StageTransition{
		CreatedAt: time.Now(),
		ResumeID:  resumeID,
		FromStage: from.String(),
		ToStage:   to.String(),
		Skip:      skip,
		Actor:     actor,
		Reason:    reason,
	}); err != nil {
		return nil, fmt.Errorf("failed to record stage transition: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}
	resume.PipelineStage = to.String()

	if ps.publisher != nil {
		if err := ps.publisher.Publish(ctx, events.StageChangedKind, events.StageChangedEvent{
			ResumeID:  resumeID,
			JobID:     resume.JobID,
			FromStage: from.String(),
			ToStage:   to.String(),
			Actor:     actor,
			ChangedAt: time.Now(),
		}); err != nil {
			tracer.Step("publish_failed").WithString("error", err.Error()).Log()
		}
	}

	tracer.Success().WithString("from", from.String()).Log()
	return resume, nil
}
