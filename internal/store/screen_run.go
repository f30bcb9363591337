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

type ScreenRun interface {
	List(ctx context.Context, filter *ScreenRunQueryFilter, opts *QueryOptions) (model.ScreenRunList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ScreenRun, error)
	Create(ctx context.Context, run model.ScreenRun) (*model.ScreenRun, error)
	RecordResult(ctx context.Context, result model.ScreenRunResult, screenedIn, screenedOut int) error
	Complete(ctx context.Context, id uuid.UUID) (bool, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

type ScreenRunStore struct {
	db *gorm.DB
}

// Make sure we conform to ScreenRun interface
var _ ScreenRun = (*ScreenRunStore)(nil)

func NewScreenRunStore(db *gorm.DB) ScreenRun {
	return &ScreenRunStore{db: db}
}

// List returns runs without their result entries.
func (s *ScreenRunStore) List(ctx context.Context, filter *ScreenRunQueryFilter, opts *QueryOptions) (model.ScreenRunList, error) {
	var runs model.ScreenRunList
	tx := s.getDB(ctx).Model(&runs)

	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	} else {
		tx = tx.Order("created_at DESC")
	}

	if err := tx.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *ScreenRunStore) Get(ctx context.Context, id uuid.UUID) (*model.ScreenRun, error) {
	var run model.ScreenRun
	result := s.getDB(ctx).Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("screen_run_results.id")
	}).First(&run, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &run, nil
}

func (s *ScreenRunStore) Create(ctx context.Context, run model.ScreenRun) (*model.ScreenRun, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = model.ScreenRunStatusRunning
	}

	if err := s.getDB(ctx).Omit("Results").Create(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &run, nil
}

// RecordResult appends an entry and bumps the counters of a run that is not
// done yet. Callers are expected to wrap it in a transaction so that the entry
// and the counters land together.
func (s *ScreenRunStore) RecordResult(ctx context.Context, result model.ScreenRunResult, screenedIn, screenedOut int) error {
	db := s.getDB(ctx)

	update := db.Model(&model.ScreenRun{}).
		Where("id = ? AND done = ? AND processed < total", result.RunID, false).
		Updates(map[string]any{
			"processed":    gorm.Expr("processed + 1"),
			"screened_in":  gorm.Expr("screened_in + ?", screenedIn),
			"screened_out": gorm.Expr("screened_out + ?", screenedOut),
			"updated_at":   time.Now(),
		})
	if update.Error != nil {
		return fmt.Errorf("updating run counters: %w", update.Error)
	}
	if update.RowsAffected == 0 {
		if _, err := s.Get(ctx, result.RunID); err != nil {
			return err
		}
		return ErrRunFinished
	}

	if err := db.Create(&result).Error; err != nil {
		return fmt.Errorf("inserting run result: %w", err)
	}
	return nil
}

// Complete marks the run completed once every item is processed. It returns
// false when the run is not finished yet or was already closed.
func (s *ScreenRunStore) Complete(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.ScreenRun{}).
		Where("id = ? AND done = ? AND processed = total", id, false).
		Updates(map[string]any{
			"done":        true,
			"status":      model.ScreenRunStatusCompleted,
			"finished_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("completing run: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Fail closes a run that is not done yet with the given reason.
func (s *ScreenRunStore) Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.ScreenRun{}).
		Where("id = ? AND done = ?", id, false).
		Updates(map[string]any{
			"done":        true,
			"status":      model.ScreenRunStatusFailed,
			"error":       reason,
			"finished_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failing run: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *ScreenRunStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
