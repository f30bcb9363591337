package events

import (
	"time"

	"github.com/google/uuid"
)

type RunStartedEvent struct {
	RunID     uuid.UUID `json:"run_id"`
	JobID     uuid.UUID `json:"job_id"`
	Total     int       `json:"total"`
	StartedAt time.Time `json:"started_at"`
}

type RunFinishedEvent struct {
	RunID       uuid.UUID `json:"run_id"`
	JobID       uuid.UUID `json:"job_id"`
	Status      string    `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	ScreenedIn  int       `json:"screened_in"`
	ScreenedOut int       `json:"screened_out"`
	Error       string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

type StageChangedEvent struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	JobID     uuid.UUID `json:"job_id"`
	FromStage string    `json:"from_stage"`
	ToStage   string    `json:"to_stage"`
	Actor     string    `json:"actor,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
