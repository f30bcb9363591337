package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/handlers/validator"
	"github.com/recruitly/screening-engine/internal/service/mappers"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/log"
)

type ResumeService struct {
	store     store.Store
	validator *validator.Validator
	logger    *log.StructuredLogger
}

func NewResumeService(st store.Store) *ResumeService {
	v := validator.NewValidator()
	v.Register(validator.NewResumeValidationRules()...)

	return &ResumeService{
		store:     st,
		validator: v,
		logger:    log.NewDebugLogger("resume_service"),
	}
}

// SubmitResume attaches a resume to an active opening. It starts in the
// screening stage with status uploaded.
func (rs *ResumeService) SubmitResume(ctx context.Context, form mappers.ResumeCreateForm) (*model.Resume, error) {
	logger := rs.logger.WithContext(ctx)
	tracer := logger.Operation("submit_resume").
		WithUUID("job_id", form.JobID).
		WithString("candidate_id", form.CandidateID).
		Build()

	if err := rs.validator.Struct(form); err != nil {
		return nil, NewErrInvalidRequest("invalid resume: %s", err)
	}

	job, err := rs.store.JobOpening().Get(ctx, form.JobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrInvalidRequest("job opening %s does not exist", form.JobID)
		}
		return nil, fmt.Errorf("failed to get job opening: %w", err)
	}
	if job.Deleted {
		return nil, NewErrInvalidRequest("job opening %s does not exist", form.JobID)
	}
	if job.Status != model.JobOpeningStatusActive {
		return nil, NewErrJobOpeningClosed(job.ID)
	}

	resume, err := rs.store.Resume().Create(ctx, form.ToModel())
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}

	tracer.Success().WithUUID("resume_id", resume.ID).Log()
	return resume, nil
}

func (rs *ResumeService) GetResume(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	resume, err := rs.store.Resume().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrResumeNotFound(id)
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

// ListResumes returns the resumes of a job, optionally only those in stage.
func (rs *ResumeService) ListResumes(ctx context.Context, jobID uuid.UUID, stage string) (model.ResumeList, error) {
	filter := store.NewResumeQueryFilter().ByJobID(jobID)
	if stage != "" {
		filter = filter.ByStage(stage)
	}

	resumes, err := rs.store.Resume().List(ctx, filter, store.NewQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

func (rs *ResumeService) DeleteResume(ctx context.Context, id uuid.UUID) error {
	if err := rs.store.Resume().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrResumeNotFound(id)
		}
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}
