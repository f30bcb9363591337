package types

import (
	"time"

	"github.com/recruitly/screening-engine/internal/store/model"
)

type ReportRenderer interface {
	Render(data *ReportData) ([]byte, error)
	SupportedFormat() ReportFormat
	ContentType() string
}

type RunProcessor interface {
	ProcessRun(job *model.JobOpening, run *model.ScreenRun) (*ReportData, error)
}

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

type ReportData struct {
	Job       *model.JobOpening
	Run       *model.ScreenRun
	Summary   RunSummary
	Rows      []ResultRow
	Generated time.Time
}

type RunSummary struct {
	Total        int
	Processed    int
	ScreenedIn   int
	ScreenedOut  int
	Failed       int
	AverageScore float64
	ByFitLevel   []Bucket
	ByErrorKind  []Bucket
}

type Bucket struct {
	Label string
	Count int
}

// ResultRow is one result entry flattened for tabular output.
type ResultRow struct {
	ResumeID      string
	CandidateID   string
	CandidateName string
	Score         string
	FitLevel      string
	Status        string
	MatchedSkills string
	MissingSkills string
	RedFlags      string
	StrongSignals string
	Concerns      string
	ErrorKind     string
	Error         string
}

// Header is the column order shared by the tabular renderers.
var Header = []string{
	"Resume ID", "Candidate ID", "Candidate Name", "Score", "Fit Level", "Status",
	"Matched Skills", "Missing Skills", "Red Flags", "Strong Signals", "Concerns",
	"Error Kind", "Error",
}

func (r ResultRow) Values() []string {
	return []string{
		r.ResumeID, r.CandidateID, r.CandidateName, r.Score, r.FitLevel, r.Status,
		r.MatchedSkills, r.MissingSkills, r.RedFlags, r.StrongSignals, r.Concerns,
		r.ErrorKind, r.Error,
	}
}
