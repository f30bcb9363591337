package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Screening run status constants
const (
	ScreenRunStatusRunning   = "running"
	ScreenRunStatusCompleted = "completed"
	ScreenRunStatusFailed    = "failed"
)

// ScreenRun is the durable progress record of one screening run.
// Counters are only ever changed while Done is false.
type ScreenRun struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	FinishedAt  *time.Time
	JobID       uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screen_runs_job_id_idx"`
	Total       int       `gorm:"not null;default:0"`
	Processed   int       `gorm:"not null;default:0"`
	ScreenedIn  int       `gorm:"not null;default:0"`
	ScreenedOut int       `gorm:"not null;default:0"`
	Status      string    `gorm:"not null;type:VARCHAR(20)"`
	Done        bool      `gorm:"not null;default:false"`
	Error       *string   `gorm:"type:TEXT"`

	Results []ScreenRunResult `gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE;"`
}

type ScreenRunList []ScreenRun

// ScreenRunResult is one per-resume entry in a run's result list.
type ScreenRunResult struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"not null"`
	RunID         uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screen_run_results_run_id_idx"`
	ResumeID      uuid.UUID `gorm:"not null;type:VARCHAR(255)"`
	CandidateID   string    `gorm:"type:VARCHAR(255)"`
	CandidateName string    `gorm:"type:VARCHAR(255)"`
	Score         *float64
	FitLevel      string     `gorm:"type:VARCHAR(20)"`
	Status        string     `gorm:"type:VARCHAR(20)"`
	MatchedSkills StringList `gorm:"type:jsonb"`
	MissingSkills StringList `gorm:"type:jsonb"`
	RedFlags      StringList `gorm:"type:jsonb"`
	StrongSignals StringList `gorm:"type:jsonb"`
	Concerns      StringList `gorm:"type:jsonb"`
	ErrorKind     *string    `gorm:"type:VARCHAR(50)"`
	Error         *string    `gorm:"type:TEXT"`
}

func (r ScreenRun) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}

func (r ScreenRun) IsFinished() bool {
	return r.Done
}

func (r ScreenRunResult) Failed() bool {
	return r.ErrorKind != nil
}
