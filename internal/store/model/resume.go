package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Resume processing status
const (
	ResumeStatusUploaded    = "uploaded"
	ResumeStatusProcessing  = "processing"
	ResumeStatusScored      = "scored"
	ResumeStatusScreenedIn  = "screened-in"
	ResumeStatusScreenedOut = "screened-out"
)

type Resume struct {
	ID            uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     *time.Time
	CandidateID   string    `gorm:"not null;type:VARCHAR(255)"`
	CandidateName string    `gorm:"type:VARCHAR(255)"`
	JobID         uuid.UUID `gorm:"not null;type:VARCHAR(255);index:resumes_job_id_idx"`
	FileRef       string    `gorm:"type:TEXT"`
	Status        string    `gorm:"not null;type:VARCHAR(20);default:'uploaded'"`
	PipelineStage string    `gorm:"not null;type:VARCHAR(20);default:'screening'"`

	AIScore         *float64
	SemanticScore   *float64
	SkillMatchScore *float64
	ExperienceScore *float64
	MetricsScore    *float64
	ComplexityScore *float64
	// Score is the legacy single-value score kept in sync with AIScore.
	Score         *float64
	MatchedSkills StringList `gorm:"type:jsonb"`
	MissingSkills StringList `gorm:"type:jsonb"`
	MLError       *string    `gorm:"column:ml_error;type:TEXT"`

	Deleted bool `gorm:"not null;default:false"`
}

type ResumeList []Resume

func (r Resume) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}

func (r Resume) IsScreened() bool {
	return r.Status == ResumeStatusScreenedIn || r.Status == ResumeStatusScreenedOut
}
