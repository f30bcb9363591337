package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewJobOpeningValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("skill", skillValidator),
		},
		{
			Rule: registerFn("job_code", jobCodeValidator),
		},
	}
}

func NewResumeValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("uuid_set", uuidValidator),
		},
	}
}

func NewPipelineValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("stage", stageValidator),
		},
	}
}

// NewScreeningValidationRules registers every rule used by the screening
// forms.
func NewScreeningValidationRules() []ValidationRule {
	rules := NewJobOpeningValidationRules()
	rules = append(rules, NewResumeValidationRules()...)
	return append(rules, NewPipelineValidationRules()...)
}
