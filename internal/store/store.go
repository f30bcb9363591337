package store

import (
	"context"

	"github.com/recruitly/screening-engine/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	JobOpening() JobOpening
	Resume() Resume
	ScreenRun() ScreenRun
	StageTransition() StageTransition
	Statistics(ctx context.Context) (model.ScreeningStats, error)
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db              *gorm.DB
	jobOpening      JobOpening
	resume          Resume
	screenRun       ScreenRun
	stageTransition StageTransition
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		jobOpening:      NewJobOpeningStore(db),
		resume:          NewResumeStore(db),
		screenRun:       NewScreenRunStore(db),
		stageTransition: NewStageTransitionStore(db),
		db:              db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) JobOpening() JobOpening {
	return s.jobOpening
}

func (s *DataStore) Resume() Resume {
	return s.resume
}

func (s *DataStore) ScreenRun() ScreenRun {
	return s.screenRun
}

func (s *DataStore) StageTransition() StageTransition {
	return s.stageTransition
}

func (s *DataStore) Statistics(ctx context.Context) (model.ScreeningStats, error) {
	stats := model.ScreeningStats{
		JobsByStatus:    map[string]int64{},
		ResumesByStatus: map[string]int64{},
		RunsByStatus:    map[string]int64{},
	}

	count := func(table any, where string, into map[string]int64) error {
		var rows []struct {
			Status string
			Total  int64
		}
		tx := s.db.WithContext(ctx).Model(table).Select("status, count(*) as total")
		if where != "" {
			tx = tx.Where(where, false)
		}
		if err := tx.Group("status").Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			into[r.Status] = r.Total
		}
		return nil
	}

	if err := count(&model.JobOpening{}, "deleted = ?", stats.JobsByStatus); err != nil {
		return stats, err
	}
	if err := count(&model.Resume{}, "deleted = ?", stats.ResumesByStatus); err != nil {
		return stats, err
	}
	if err := count(&model.ScreenRun{}, "", stats.RunsByStatus); err != nil {
		return stats, err
	}
	return stats, nil
}

// InitialMigration creates the schema from the models. Used for sqlite and
// local development; postgres deployments run the goose migrations instead.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.JobOpening{},
		&model.Resume{},
		&model.ScreenRun{},
		&model.ScreenRunResult{},
		&model.StageTransition{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
