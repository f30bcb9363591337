package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

type JobOpeningQueryFilter struct {
	BaseQuerier
	includeDeleted bool
}

func NewJobOpeningQueryFilter() *JobOpeningQueryFilter {
	return &JobOpeningQueryFilter{BaseQuerier: BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *JobOpeningQueryFilter) ByCompanyID(companyID string) *JobOpeningQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("company_id = ?", companyID)
	})
	return f
}

func (f *JobOpeningQueryFilter) ByStatus(status string) *JobOpeningQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return f
}

// WithDeleted includes soft-deleted openings. They are excluded by default.
func (f *JobOpeningQueryFilter) WithDeleted() *JobOpeningQueryFilter {
	f.includeDeleted = true
	return f
}

type ResumeQueryFilter struct {
	BaseQuerier
}

func NewResumeQueryFilter() *ResumeQueryFilter {
	return &ResumeQueryFilter{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *ResumeQueryFilter) ByJobID(jobID uuid.UUID) *ResumeQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_id = ?", jobID)
	})
	return f
}

func (f *ResumeQueryFilter) ByIDs(ids []uuid.UUID) *ResumeQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id IN ?", ids)
	})
	return f
}

func (f *ResumeQueryFilter) ByStatus(status string) *ResumeQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return f
}

func (f *ResumeQueryFilter) ByStage(stage string) *ResumeQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline_stage = ?", stage)
	})
	return f
}

type ScreenRunQueryFilter struct {
	BaseQuerier
}

func NewScreenRunQueryFilter() *ScreenRunQueryFilter {
	return &ScreenRunQueryFilter{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *ScreenRunQueryFilter) ByID(id uuid.UUID) *ScreenRunQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	})
	return f
}

func (f *ScreenRunQueryFilter) ByJobID(jobID uuid.UUID) *ScreenRunQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_id = ?", jobID)
	})
	return f
}

func (f *ScreenRunQueryFilter) ByStatus(status string) *ScreenRunQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return f
}

func (f *ScreenRunQueryFilter) NotDone() *ScreenRunQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("done = ?", false)
	})
	return f
}

func (f *ScreenRunQueryFilter) UpdatedBefore(ts time.Time) *ScreenRunQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("updated_at < ?", ts)
	})
	return f
}

type QueryOptions struct {
	BaseQuerier
}

func NewQueryOptions() *QueryOptions {
	return &QueryOptions{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (o *QueryOptions) WithSortOrder(sort SortOrder) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at DESC")
		default:
			return tx
		}
	})
	return o
}

// Limit results
func (o *QueryOptions) WithLimit(limit int) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

// Offset results
func (o *QueryOptions) WithOffset(offset int) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset)
	})
	return o
}
