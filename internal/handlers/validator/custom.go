package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/internal/jobcode"
	"github.com/recruitly/screening-engine/internal/pipeline"
)

var skillRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} +#./&_-]*$`)

func skillValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	val = strings.TrimSpace(val)
	return len(val) <= 100 && skillRegex.MatchString(val)
}

func uuidValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(uuid.UUID)
	if !ok {
		return false
	}
	return val != uuid.Nil
}

func stageValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := pipeline.ParseStage(val)
	return err == nil
}

func jobCodeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return jobcode.Valid(val)
}
