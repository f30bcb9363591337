package mappers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/thoas/go-funk"
)

type JobOpeningCreateForm struct {
	CompanyID             string   `validate:"required,max=255"`
	Title                 string   `validate:"required,max=255"`
	Description           string   `validate:"max=20000"`
	RequiredSkills        []string `validate:"required_without=Description,dive,skill"`
	NiceToHaveSkills      []string `validate:"dive,skill"`
	ExperienceRequirement string   `validate:"max=1000"`
	Eligibility           string   `validate:"max=2000"`
	SalaryMin             *int     `validate:"omitempty,gte=0"`
	SalaryMax             *int     `validate:"omitempty,gte=0"`
}

// Normalized returns the form with trimmed, deduplicated skills and blank
// entries dropped, ready for validation.
func (f JobOpeningCreateForm) Normalized() JobOpeningCreateForm {
	f.RequiredSkills = cleanSkills(f.RequiredSkills)
	f.NiceToHaveSkills = cleanSkills(f.NiceToHaveSkills)
	return f
}

func (f JobOpeningCreateForm) ToModel() model.JobOpening {
	return model.JobOpening{
		ID:                    uuid.New(),
		CreatedAt:             time.Now(),
		CompanyID:             f.CompanyID,
		Title:                 strings.TrimSpace(f.Title),
		Description:           f.Description,
		RequiredSkills:        model.MakeStringList(cleanSkills(f.RequiredSkills)),
		NiceToHaveSkills:      model.MakeStringList(cleanSkills(f.NiceToHaveSkills)),
		ExperienceRequirement: f.ExperienceRequirement,
		Eligibility:           f.Eligibility,
		SalaryMin:             f.SalaryMin,
		SalaryMax:             f.SalaryMax,
		Status:                model.JobOpeningStatusActive,
	}
}

// JobOpeningUpdateForm carries the mutable fields of an opening. Nil fields
// are left unchanged. The job code cannot be updated.
type JobOpeningUpdateForm struct {
	Title                 *string   `validate:"omitempty,min=1,max=255"`
	Description           *string   `validate:"omitempty,max=20000"`
	RequiredSkills        *[]string `validate:"omitempty,dive,skill"`
	NiceToHaveSkills      *[]string `validate:"omitempty,dive,skill"`
	ExperienceRequirement *string   `validate:"omitempty,max=1000"`
	Eligibility           *string   `validate:"omitempty,max=2000"`
	SalaryMin             *int      `validate:"omitempty,gte=0"`
	SalaryMax             *int      `validate:"omitempty,gte=0"`
}

func (f JobOpeningUpdateForm) Normalized() JobOpeningUpdateForm {
	if f.RequiredSkills != nil {
		skills := cleanSkills(*f.RequiredSkills)
		f.RequiredSkills = &skills
	}
	if f.NiceToHaveSkills != nil {
		skills := cleanSkills(*f.NiceToHaveSkills)
		f.NiceToHaveSkills = &skills
	}
	return f
}

func (f JobOpeningUpdateForm) Apply(job *model.JobOpening) {
	if f.Title != nil {
		job.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		job.Description = *f.Description
	}
	if f.RequiredSkills != nil {
		job.RequiredSkills = model.MakeStringList(cleanSkills(*f.RequiredSkills))
	}
	if f.NiceToHaveSkills != nil {
		job.NiceToHaveSkills = model.MakeStringList(cleanSkills(*f.NiceToHaveSkills))
	}
	if f.ExperienceRequirement != nil {
		job.ExperienceRequirement = *f.ExperienceRequirement
	}
	if f.Eligibility != nil {
		job.Eligibility = *f.Eligibility
	}
	if f.SalaryMin != nil {
		job.SalaryMin = f.SalaryMin
	}
	if f.SalaryMax != nil {
		job.SalaryMax = f.SalaryMax
	}
}

type ResumeCreateForm struct {
	JobID         uuid.UUID `validate:"uuid_set"`
	CandidateID   string    `validate:"required,max=255"`
	CandidateName string    `validate:"max=255"`
	FileRef       string    `validate:"required,max=1024"`
}

func (f ResumeCreateForm) ToModel() model.Resume {
	return model.Resume{
		ID:            uuid.New(),
		CreatedAt:     time.Now(),
		CandidateID:   f.CandidateID,
		CandidateName: f.CandidateName,
		JobID:         f.JobID,
		FileRef:       f.FileRef,
		Status:        model.ResumeStatusUploaded,
		PipelineStage: pipeline.StageScreening.String(),
	}
}

// cleanSkills trims the entries and drops blanks and duplicates, keeping the
// first spelling of each skill. A list with nothing left is nil.
func cleanSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	trimmed := funk.Map(skills, strings.TrimSpace).([]string)
	cleaned := funk.UniqString(funk.FilterString(trimmed, func(s string) bool { return s != "" }))
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
