// Package v1alpha1 holds the JSON types of the screening API.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type StageAction string

const (
	StageActionAdvance StageAction = "advance"
	StageActionSkip    StageAction = "skip"
	StageActionReject  StageAction = "reject"
)

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}

type JobOpeningCreate struct {
	CompanyId             string   `json:"companyId"`
	Title                 string   `json:"title"`
	Description           string   `json:"description,omitempty"`
	RequiredSkills        []string `json:"requiredSkills,omitempty"`
	NiceToHaveSkills      []string `json:"niceToHaveSkills,omitempty"`
	ExperienceRequirement string   `json:"experienceRequirement,omitempty"`
	Eligibility           string   `json:"eligibility,omitempty"`
	SalaryMin             *int     `json:"salaryMin,omitempty"`
	SalaryMax             *int     `json:"salaryMax,omitempty"`
}

type JobOpeningUpdate struct {
	Title                 *string   `json:"title,omitempty"`
	Description           *string   `json:"description,omitempty"`
	RequiredSkills        *[]string `json:"requiredSkills,omitempty"`
	NiceToHaveSkills      *[]string `json:"niceToHaveSkills,omitempty"`
	ExperienceRequirement *string   `json:"experienceRequirement,omitempty"`
	Eligibility           *string   `json:"eligibility,omitempty"`
	SalaryMin             *int      `json:"salaryMin,omitempty"`
	SalaryMax             *int      `json:"salaryMax,omitempty"`
}

type JobOpening struct {
	Id                    uuid.UUID  `json:"id"`
	JobCode               string     `json:"jobCode"`
	CompanyId             string     `json:"companyId"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	RequiredSkills        []string   `json:"requiredSkills"`
	NiceToHaveSkills      []string   `json:"niceToHaveSkills"`
	ExperienceRequirement string     `json:"experienceRequirement"`
	Eligibility           string     `json:"eligibility"`
	SalaryMin             *int       `json:"salaryMin,omitempty"`
	SalaryMax             *int       `json:"salaryMax,omitempty"`
	Status                string     `json:"status"`
	TotalResumes          int        `json:"totalResumes"`
	ScreenedResumes       int        `json:"screenedResumes"`
	LastScreenedAt        *time.Time `json:"lastScreenedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

type JobOpeningList []JobOpening

type ResumeCreate struct {
	JobId         uuid.UUID `json:"jobId"`
	CandidateId   string    `json:"candidateId"`
	CandidateName string    `json:"candidateName,omitempty"`
	FileRef       string    `json:"fileRef"`
}

type Resume struct {
	Id            uuid.UUID `json:"id"`
	JobId         uuid.UUID `json:"jobId"`
	CandidateId   string    `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	FileRef       string    `json:"fileRef"`
	Status        string    `json:"status"`
	PipelineStage string    `json:"pipelineStage"`
	AiScore       *float64  `json:"aiScore,omitempty"`
	MatchedSkills []string  `json:"matchedSkills"`
	MissingSkills []string  `json:"missingSkills"`
	MlError       *string   `json:"mlError,omitempty"`
	// AllowedStages lists the stages an advance or reject can move to now.
	AllowedStages []string  `json:"allowedStages"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ResumeList []Resume

type RunCreate struct {
	ResumeIds []uuid.UUID `json:"resumeIds"`
}

type RunResult struct {
	ResumeId      uuid.UUID `json:"resumeId"`
	CandidateId   string    `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	Score         *float64  `json:"score"`
	FitLevel      string    `json:"fitLevel,omitempty"`
	Status        string    `json:"status,omitempty"`
	MatchedSkills []string  `json:"matchedSkills"`
	MissingSkills []string  `json:"missingSkills"`
	RedFlags      []string  `json:"redFlags"`
	StrongSignals []string  `json:"strongSignals"`
	Concerns      []string  `json:"concerns"`
	ErrorKind     *string   `json:"errorKind,omitempty"`
	Error         *string   `json:"error,omitempty"`
}

type Run struct {
	Id          uuid.UUID   `json:"id"`
	JobId       uuid.UUID   `json:"jobId"`
	Total       int         `json:"total"`
	Processed   int         `json:"processed"`
	ScreenedIn  int         `json:"screenedIn"`
	ScreenedOut int         `json:"screenedOut"`
	Status      RunStatus   `json:"status"`
	Done        bool        `json:"done"`
	Error       *string     `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	FinishedAt  *time.Time  `json:"finishedAt,omitempty"`
	Results     []RunResult `json:"results,omitempty"`
}

type RunList []Run

type StageChange struct {
	Action StageAction `json:"action"`
	Stage  string      `json:"stage,omitempty"`
	Actor  string      `json:"actor"`
	Reason string      `json:"reason,omitempty"`
}

type StageTransition struct {
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	Skip      bool      `json:"skip"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type StageTransitionList []StageTransition

type Stats struct {
	JobOpenings map[string]int64 `json:"jobOpenings"`
	Resumes     map[string]int64 `json:"resumes"`
	Runs        map[string]int64 `json:"runs"`
}
