package mappers

import (
	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/service/mappers"
)

func JobOpeningFormApi(resource api.JobOpeningCreate) mappers.JobOpeningCreateForm {
	return mappers.JobOpeningCreateForm{
		CompanyID:             resource.CompanyId,
		Title:                 resource.Title,
		Description:           resource.Description,
		RequiredSkills:        resource.RequiredSkills,
		NiceToHaveSkills:      resource.NiceToHaveSkills,
		ExperienceRequirement: resource.ExperienceRequirement,
		Eligibility:           resource.Eligibility,
		SalaryMin:             resource.SalaryMin,
		SalaryMax:             resource.SalaryMax,
	}
}

func JobOpeningUpdateFormApi(resource api.JobOpeningUpdate) mappers.JobOpeningUpdateForm {
	return mappers.JobOpeningUpdateForm{
		Title:                 resource.Title,
		Description:           resource.Description,
		RequiredSkills:        resource.RequiredSkills,
		NiceToHaveSkills:      resource.NiceToHaveSkills,
		ExperienceRequirement: resource.ExperienceRequirement,
		Eligibility:           resource.Eligibility,
		SalaryMin:             resource.SalaryMin,
		SalaryMax:             resource.SalaryMax,
	}
}

func ResumeFormApi(resource api.ResumeCreate) mappers.ResumeCreateForm {
	return mappers.ResumeCreateForm{
		JobID:         resource.JobId,
		CandidateID:   resource.CandidateId,
		CandidateName: resource.CandidateName,
		FileRef:       resource.FileRef,
	}
}
