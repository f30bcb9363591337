package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/store/model"
	"gorm.io/gorm"
)

type StageTransition interface {
	Create(ctx context.Context, transition model.StageTransition) (*model.StageTransition, error)
	ListByResume(ctx context.Context, resumeID uuid.UUID) (model.StageTransitionList, error)
}

type StageTransitionStore struct {
	db *gorm.DB
}

// Make sure we conform to StageTransition interface
var _ StageTransition = (*StageTransitionStore)(nil)

func NewStageTransitionStore(db *gorm.DB) StageTransition {
	return &StageTransitionStore{db: db}
}

func (s *StageTransitionStore) Create(ctx context.Context, transition model.StageTransition) (*model.StageTransition, error) {
	if err := s.getDB(ctx).Create(&transition).Error; err != nil {
		return nil, err
	}
	return &transition, nil
}

func (s *StageTransitionStore) ListByResume(ctx context.Context, resumeID uuid.UUID) (model.StageTransitionList, error) {
	var transitions model.StageTransitionList
	if err := s.getDB(ctx).Where("resume_id = ?", resumeID).Order("id").Find(&transitions).Error; err != nil {
		return nil, err
	}
	return transitions, nil
}

func (s *StageTransitionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
