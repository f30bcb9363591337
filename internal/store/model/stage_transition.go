package model

import (
	"time"

	"github.com/google/uuid"
)

// StageTransition is the audit record written for every accepted pipeline move.
type StageTransition struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	ResumeID  uuid.UUID `gorm:"not null;type:VARCHAR(255);index:stage_transitions_resume_id_idx"`
	FromStage string    `gorm:"not null;type:VARCHAR(20)"`
	ToStage   string    `gorm:"not null;type:VARCHAR(20)"`
	Skip      bool      `gorm:"not null;default:false"`
	Actor     string    `gorm:"type:VARCHAR(255)"`
	Reason    string    `gorm:"type:TEXT"`
}

type StageTransitionList []StageTransition
