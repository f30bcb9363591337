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

// ResumeScoring holds the scoring fields written after a successful screening.
type ResumeScoring struct {
	AIScore         float64
	SemanticScore   *float64
	SkillMatchScore *float64
	ExperienceScore *float64
	MetricsScore    *float64
	ComplexityScore *float64
	MatchedSkills   []string
	MissingSkills   []string
	Status          string
}

type Resume interface {
	List(ctx context.Context, filter *ResumeQueryFilter, opts *QueryOptions) (model.ResumeList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Resume, error)
	Create(ctx context.Context, resume model.Resume) (*model.Resume, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateScoring(ctx context.Context, id uuid.UUID, scoring ResumeScoring) error
	SetMLError(ctx context.Context, id uuid.UUID, message string) error
	UpdateStage(ctx context.Context, id uuid.UUID, from, to string) error
	CountByJob(ctx context.Context, jobID uuid.UUID) (total int64, screened int64, err error)
}

type ResumeStore struct {
	db *gorm.DB
}

// Make sure we conform to Resume interface
var _ Resume = (*ResumeStore)(nil)

func NewResumeStore(db *gorm.DB) Resume {
	return &ResumeStore{db: db}
}

// List never returns soft-deleted resumes.
func (s *ResumeStore) List(ctx context.Context, filter *ResumeQueryFilter, opts *QueryOptions) (model.ResumeList, error) {
	var resumes model.ResumeList
	tx := s.getDB(ctx).Model(&resumes).Where("deleted = ?", false)

	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	}

	if err := tx.Find(&resumes).Error; err != nil {
		return nil, err
	}
	return resumes, nil
}

func (s *ResumeStore) Get(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	var resume model.Resume
	if err := s.getDB(ctx).First(&resume, "id = ? AND deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &resume, nil
}

func (s *ResumeStore) Create(ctx context.Context, resume model.Resume) (*model.Resume, error) {
	if resume.ID == uuid.Nil {
		resume.ID = uuid.New()
	}
	if resume.Status == "" {
		resume.Status = model.ResumeStatusUploaded
	}
	if resume.PipelineStage == "" {
		resume.PipelineStage = "screening"
	}

	if err := s.getDB(ctx).Create(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &resume, nil
}

func (s *ResumeStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Model(&model.Resume{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"deleted": true, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("deleting resume: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateScoring writes the composite and sub-scores and clears any previous
// ml error.
func (s *ResumeStore) UpdateScoring(ctx context.Context, id uuid.UUID, scoring ResumeScoring) error {
	score := scoring.AIScore
	result := s.getDB(ctx).Model(&model.Resume{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{
			"ai_score":          score,
			"score":             score,
			"semantic_score":    scoring.SemanticScore,
			"skill_match_score": scoring.SkillMatchScore,
			"experience_score":  scoring.ExperienceScore,
			"metrics_score":     scoring.MetricsScore,
			"complexity_score":  scoring.ComplexityScore,
			"matched_skills":    model.MakeStringList(scoring.MatchedSkills),
			"missing_skills":    model.MakeStringList(scoring.MissingSkills),
			"status":            scoring.Status,
			"ml_error":          nil,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("updating resume scoring: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetMLError records a per-item failure. The status is left untouched.
func (s *ResumeStore) SetMLError(ctx context.Context, id uuid.UUID, message string) error {
	result := s.getDB(ctx).Model(&model.Resume{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"ml_error": message, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("updating resume ml error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateStage moves the resume only if it is still in the from stage.
func (s *ResumeStore) UpdateStage(ctx context.Context, id uuid.UUID, from, to string) error {
	result := s.getDB(ctx).Model(&model.Resume{}).
		Where("id = ? AND pipeline_stage = ? AND deleted = ?", id, from, false).
		Updates(map[string]any{"pipeline_stage": to, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("updating resume stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ResumeStore) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, int64, error) {
	var total, screened int64
	base := func() *gorm.DB {
		return s.getDB(ctx).Model(&model.Resume{}).Where("job_id = ? AND deleted = ?", jobID, false)
	}
	if err := base().Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Where("status IN ?", []string{model.ResumeStatusScreenedIn, model.ResumeStatusScreenedOut}).Count(&screened).Error; err != nil {
		return 0, 0, err
	}
	return total, screened, nil
}

func (s *ResumeStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
