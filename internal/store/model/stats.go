package model

// ScreeningStats is a point in time count of the main entities, grouped by
// status. Soft-deleted jobs and resumes are not counted.
type ScreeningStats struct {
	JobsByStatus    map[string]int64
	ResumesByStatus map[string]int64
	RunsByStatus    map[string]int64
}
