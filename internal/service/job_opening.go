package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/handlers/validator"
	"github.com/recruitly/screening-engine/internal/jobcode"
	"github.com/recruitly/screening-engine/internal/service/mappers"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/log"
)

type JobOpeningFilter struct {
	CompanyID string
	Status    string
	Limit     int
	Offset    int
}

type JobOpeningService struct {
	store     store.Store
	generator *jobcode.Generator
	validator *validator.Validator
	logger    *log.StructuredLogger
}

func NewJobOpeningService(st store.Store, generator *jobcode.Generator) *JobOpeningService {
	v := validator.NewValidator()
	v.Register(validator.NewJobOpeningValidationRules()...)

	return &JobOpeningService{
		store:     st,
		generator: generator,
		validator: v,
		logger:    log.NewDebugLogger("job_opening_service"),
	}
}

// CreateJobOpening persists a new opening with a freshly issued job code.
// A code taken concurrently by another opening is replaced by a new one.
func (js *JobOpeningService) CreateJobOpening(ctx context.Context, form mappers.JobOpeningCreateForm) (*model.JobOpening, error) {
	logger := js.logger.WithContext(ctx)
	tracer := logger.Operation("create_job_opening").
		WithString("company_id", form.CompanyID).
		WithString("title", form.Title).
		Build()

	form = form.Normalized()
	if err := js.validator.Struct(form); err != nil {
		return nil, NewErrInvalidRequest("invalid job opening: %s", err)
	}
	if err := validateSalary(form.SalaryMin, form.SalaryMax); err != nil {
		return nil, err
	}

	job := form.ToModel()
	var created *model.JobOpening
	code, err := js.generator.Assign(ctx, func(code string) error {
		job.JobCode = &code
		var err error
		created, err = js.store.JobOpening().Create(ctx, job)
		return err
	})
	if err != nil {
		if errors.Is(err, jobcode.ErrCodeGenerationExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create job opening: %w", err)
	}

	tracer.Success().WithUUID("job_id", created.ID).WithString("job_code", code).Log()
	return created, nil
}

// GetJobOpening returns an opening that is not deleted.
func (js *JobOpeningService) GetJobOpening(ctx context.Context, id uuid.UUID) (*model.JobOpening, error) {
	job, err := js.store.JobOpening().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobOpeningNotFound(id)
		}
		return nil, fmt.Errorf("failed to get job opening: %w", err)
	}
	if job.Deleted {
		return nil, NewErrJobOpeningNotFound(id)
	}
	return job, nil
}

func (js *JobOpeningService) ListJobOpenings(ctx context.Context, filter JobOpeningFilter) (model.JobOpeningList, error) {
	storeFilter := store.NewJobOpeningQueryFilter()
	if filter.CompanyID != "" {
		storeFilter = storeFilter.ByCompanyID(filter.CompanyID)
	}
	if filter.Status != "" {
		storeFilter = storeFilter.ByStatus(filter.Status)
	}

	opts := store.NewQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts = opts.WithOffset(filter.Offset)
	}

	jobs, err := js.store.JobOpening().List(ctx, storeFilter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list job openings: %w", err)
	}
	return jobs, nil
}

// UpdateJobOpening changes the mutable fields. The job code is kept.
func (js *JobOpeningService) UpdateJobOpening(ctx context.Context, id uuid.UUID, form mappers.JobOpeningUpdateForm) (*model.JobOpening, error) {
	logger := js.logger.WithContext(ctx)
	tracer := logger.Operation("update_job_opening").WithUUID("job_id", id).Build()

	form = form.Normalized()
	if err := js.validator.Struct(form); err != nil {
		return nil, NewErrInvalidRequest("invalid job opening: %s", err)
	}

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.GetJobOpening(ctx, id)
	if err != nil {
		return nil, err
	}

	form.Apply(job)
	if err := validateSalary(job.SalaryMin, job.SalaryMax); err != nil {
		return nil, err
	}

	updated, err := js.store.JobOpening().Update(ctx, *job)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobOpeningNotFound(id)
		}
		return nil, fmt.Errorf("failed to update job opening: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().Log()
	return updated, nil
}

// CloseJobOpening stops the opening from accepting resumes. Existing resumes
// can still be screened.
func (js *JobOpeningService) CloseJobOpening(ctx context.Context, id uuid.UUID) (*model.JobOpening, error) {
	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.GetJobOpening(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = model.JobOpeningStatusClosed

	updated, err := js.store.JobOpening().Update(ctx, *job)
	if err != nil {
		return nil, fmt.Errorf("failed to close job opening: %w", err)
	}
	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteJobOpening soft deletes the opening. Its code stays reserved.
func (js *JobOpeningService) DeleteJobOpening(ctx context.Context, id uuid.UUID) error {
	logger := js.logger.WithContext(ctx)
	tracer := logger.Operation("delete_job_opening").WithUUID("job_id", id).Build()

	if err := js.store.JobOpening().SoftDelete(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobOpeningNotFound(id)
		}
		return fmt.Errorf("failed to delete job opening: %w", err)
	}

	tracer.Success().Log()
	return nil
}

func validateSalary(min, max *int) error {
	if min != nil && max != nil && *max < *min {
		return NewErrInvalidRequest("salary max %d is lower than salary min %d", *max, *min)
	}
	return nil
}
