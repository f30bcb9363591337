package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobOpeningStatusActive = "active"
	JobOpeningStatusClosed = "closed"
)

type JobOpening struct {
	ID                    uuid.UUID  `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             *time.Time
	CompanyID             string     `gorm:"not null;type:VARCHAR(255);index:job_openings_company_id_idx"`
	Title                 string     `gorm:"not null;type:VARCHAR(255)"`
	Description           string     `gorm:"type:TEXT"`
	RequiredSkills        StringList `gorm:"type:jsonb"`
	NiceToHaveSkills      StringList `gorm:"type:jsonb"`
	ExperienceRequirement string     `gorm:"type:TEXT"`
	Eligibility           string     `gorm:"type:TEXT"`
	SalaryMin             *int
	SalaryMax             *int

	// JobCode is assigned once at creation and never changes afterwards.
	JobCode   *string `gorm:"type:VARCHAR(7);uniqueIndex:job_openings_job_code_idx"`
	Status    string  `gorm:"not null;type:VARCHAR(20);default:'active'"`
	Deleted   bool    `gorm:"not null;default:false"`
	DeletedAt *time.Time

	TotalResumes    int `gorm:"not null;default:0"`
	ScreenedResumes int `gorm:"not null;default:0"`
	LastScreenedAt  *time.Time
}

type JobOpeningList []JobOpening

func (j JobOpening) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

func (j JobOpening) Code() string {
	if j.JobCode == nil {
		return ""
	}
	return *j.JobCode
}
