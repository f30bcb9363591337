package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/store/model"
	"gorm.io/gorm"
)

type JobOpening interface {
	List(ctx context.Context, filter *JobOpeningQueryFilter, opts *QueryOptions) (model.JobOpeningList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.JobOpening, error)
	Create(ctx context.Context, job model.JobOpening) (*model.JobOpening, error)
	Update(ctx context.Context, job model.JobOpening) (*model.JobOpening, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateScreeningMetadata(ctx context.Context, id uuid.UUID, total, screened int, at time.Time) error
}

type JobOpeningStore struct {
	db *gorm.DB
}

// Make sure we conform to JobOpening interface
var _ JobOpening = (*JobOpeningStore)(nil)

func NewJobOpeningStore(db *gorm.DB) JobOpening {
	return &JobOpeningStore{db: db}
}

func (s *JobOpeningStore) List(ctx context.Context, filter *JobOpeningQueryFilter, opts *QueryOptions) (model.JobOpeningList, error) {
	var jobs model.JobOpeningList
	tx := s.getDB(ctx).Model(&jobs)

	if filter == nil || !filter.includeDeleted {
		tx = tx.Where("deleted = ?", false)
	}
	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	} else {
		tx = tx.Order("created_at DESC")
	}

	if err := tx.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Get returns the opening whether or not it is soft-deleted.
func (s *JobOpeningStore) Get(ctx context.Context, id uuid.UUID) (*model.JobOpening, error) {
	var job model.JobOpening
	if err := s.getDB(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *JobOpeningStore) Create(ctx context.Context, job model.JobOpening) (*model.JobOpening, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = model.JobOpeningStatusActive
	}

	if err := s.getDB(ctx).Create(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &job, nil
}

// Update writes the mutable fields of the opening. The job code is never
// written here.
func (s *JobOpeningStore) Update(ctx context.Context, job model.JobOpening) (*model.JobOpening, error) {
	now := time.Now()
	job.UpdatedAt = &now

	result := s.getDB(ctx).Model(&model.JobOpening{}).
		Where("id = ? AND deleted = ?", job.ID, false).
		Select("title", "description", "required_skills", "nice_to_have_skills",
			"experience_requirement", "eligibility", "salary_min", "salary_max", "status", "updated_at").
		Updates(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("updating job opening: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, job.ID)
}

func (s *JobOpeningStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.JobOpening{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"deleted": true, "deleted_at": now, "updated_at": now})
	if result.Error != nil {
		return fmt.Errorf("deleting job opening: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CodeExists checks the code against every opening ever created, deleted or not.
func (s *JobOpeningStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.getDB(ctx).Model(&model.JobOpening{}).Where("job_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *JobOpeningStore) UpdateScreeningMetadata(ctx context.Context, id uuid.UUID, total, screened int, at time.Time) error {
	result := s.getDB(ctx).Model(&model.JobOpening{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_resumes":    total,
			"screened_resumes": screened,
			"last_screened_at": at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return fmt.Errorf("updating screening metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobOpeningStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
