package mappers

import (
	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/store/model"
)

var tracker = pipeline.NewTracker()

// orEmpty keeps lists as [] rather than null in responses.
func orEmpty(l model.StringList) []string {
	if l.Data == nil {
		return []string{}
	}
	return l.Data
}

func JobOpeningToApi(job model.JobOpening) api.JobOpening {
	return api.JobOpening{
		Id:                    job.ID,
		JobCode:               job.Code(),
		CompanyId:             job.CompanyID,
		Title:                 job.Title,
		Description:           job.Description,
		RequiredSkills:        orEmpty(job.RequiredSkills),
		NiceToHaveSkills:      orEmpty(job.NiceToHaveSkills),
		ExperienceRequirement: job.ExperienceRequirement,
		Eligibility:           job.Eligibility,
		SalaryMin:             job.SalaryMin,
		SalaryMax:             job.SalaryMax,
		Status:                job.Status,
		TotalResumes:          job.TotalResumes,
		ScreenedResumes:       job.ScreenedResumes,
		LastScreenedAt:        job.LastScreenedAt,
		CreatedAt:             job.CreatedAt,
		UpdatedAt:             job.UpdatedAt,
	}
}

func JobOpeningListToApi(jobs model.JobOpeningList) api.JobOpeningList {
	out := make(api.JobOpeningList, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, JobOpeningToApi(j))
	}
	return out
}

func ResumeToApi(resume model.Resume) api.Resume {
	return api.Resume{
		Id:            resume.ID,
		JobId:         resume.JobID,
		CandidateId:   resume.CandidateID,
		CandidateName: resume.CandidateName,
		FileRef:       resume.FileRef,
		Status:        resume.Status,
		PipelineStage: resume.PipelineStage,
		AiScore:       resume.AIScore,
		MatchedSkills: orEmpty(resume.MatchedSkills),
		MissingSkills: orEmpty(resume.MissingSkills),
		MlError:       resume.MLError,
		AllowedStages: allowedStages(resume),
		CreatedAt:     resume.CreatedAt,
	}
}

func allowedStages(resume model.Resume) []string {
	stages := tracker.Allowed(pipeline.Stage(resume.PipelineStage), resume.Status)
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.String())
	}
	return out
}

func ResumeListToApi(resumes model.ResumeList) api.ResumeList {
	out := make(api.ResumeList, 0, len(resumes))
	for _, r := range resumes {
		out = append(out, ResumeToApi(r))
	}
	return out
}

func RunResultToApi(r model.ScreenRunResult) api.RunResult {
	return api.RunResult{
		ResumeId:      r.ResumeID,
		CandidateId:   r.CandidateID,
		CandidateName: r.CandidateName,
		Score:         r.Score,
		FitLevel:      r.FitLevel,
		Status:        r.Status,
		MatchedSkills: orEmpty(r.MatchedSkills),
		MissingSkills: orEmpty(r.MissingSkills),
		RedFlags:      orEmpty(r.RedFlags),
		StrongSignals: orEmpty(r.StrongSignals),
		Concerns:      orEmpty(r.Concerns),
		ErrorKind:     r.ErrorKind,
		Error:         r.Error,
	}
}

func RunToApi(run model.ScreenRun) api.Run {
	out := api.Run{
		Id:          run.ID,
		JobId:       run.JobID,
		Total:       run.Total,
		Processed:   run.Processed,
		ScreenedIn:  run.ScreenedIn,
		ScreenedOut: run.ScreenedOut,
		Status:      api.StringToRunStatus(run.Status),
		Done:        run.Done,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
		FinishedAt:  run.FinishedAt,
	}
	if len(run.Results) > 0 {
		out.Results = make([]api.RunResult, 0, len(run.Results))
		for _, r := range run.Results {
			out.Results = append(out.Results, RunResultToApi(r))
		}
	}
	return out
}

func RunListToApi(runs model.ScreenRunList) api.RunList {
	out := make(api.RunList, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunToApi(r))
	}
	return out
}

func StageTransitionsToApi(transitions model.StageTransitionList) api.StageTransitionList {
	out := make(api.StageTransitionList, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, api.StageTransition{
			FromStage: t.FromStage,
			ToStage:   t.ToStage,
			Skip:      t.Skip,
			Actor:     t.Actor,
			Reason:    t.Reason,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

func StatsToApi(stats model.ScreeningStats) api.Stats {
	return api.Stats{
		JobOpenings: stats.JobsByStatus,
		Resumes:     stats.ResumesByStatus,
		Runs:        stats.RunsByStatus,
	}
}
