package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(format string, args ...any) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf(format, args...)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobOpeningNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job opening")
}

func NewErrResumeNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "resume")
}

func NewErrRunNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "screening run")
}

// ErrPersistenceFault wraps a storage failure that stops a run.
type ErrPersistenceFault struct {
	error
	cause error
}

func NewErrPersistenceFault(op string, err error) *ErrPersistenceFault {
	return &ErrPersistenceFault{error: fmt.Errorf("persistence fault while %s: %w", op, err), cause: err}
}

func (e *ErrPersistenceFault) Unwrap() error {
	return e.cause
}

type ErrRunAlreadyActive struct {
	error
}

func NewErrRunAlreadyActive(jobID, runID uuid.UUID) *ErrRunAlreadyActive {
	return &ErrRunAlreadyActive{fmt.Errorf("job opening %s already has a running screening run %s", jobID, runID)}
}

type ErrRunFinished struct {
	error
}

func NewErrRunFinished(runID uuid.UUID) *ErrRunFinished {
	return &ErrRunFinished{fmt.Errorf("screening run %s is already finished", runID)}
}

type ErrJobOpeningClosed struct {
	error
}

func NewErrJobOpeningClosed(id uuid.UUID) *ErrJobOpeningClosed {
	return &ErrJobOpeningClosed{fmt.Errorf("job opening %s is not accepting resumes", id)}
}
