// Package pipeline validates the human hiring stages a resume moves through
// after screening.
package pipeline

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageScreening  Stage = "screening"
	StageAssessment Stage = "assessment"
	StageInterview  Stage = "interview"
	StageOffer      Stage = "offer"
	StageHired      Stage = "hired"
	StageRejected   Stage = "rejected"
)

var (
	ErrInvalidTransition = errors.New("invalid pipeline transition")
	ErrUnknownStage      = errors.New("unknown pipeline stage")
	ErrNotScreened       = errors.New("resume has not been screened yet")
)

// forward order of the stages; rejected sits outside of it
var order = map[Stage]int{
	StageScreening:  0,
	StageAssessment: 1,
	StageInterview:  2,
	StageOffer:      3,
	StageHired:      4,
}

func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	return st, nil
}

func (s Stage) Valid() bool {
	if s == StageRejected {
		return true
	}
	_, ok := order[s]
	return ok
}

func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected
}

func (s Stage) String() string {
	return string(s)
}

// Next returns the adjacent forward stage, if any.
func (s Stage) Next() (Stage, bool) {
	idx, ok := order[s]
	if !ok || s.Terminal() {
		return "", false
	}
	for st, i := range order {
		if i == idx+1 {
			return st, true
		}
	}
	return "", false
}

func Stages() []Stage {
	return []Stage{StageScreening, StageAssessment, StageInterview, StageOffer, StageHired, StageRejected}
}
