// Package scoring is the boundary to the model that rates a resume against a
// job opening.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/recruitly/screening-engine/internal/aggregation"
)

type Kind string

const (
	KindTimeout      Kind = "Timeout"
	KindUnavailable  Kind = "Unavailable"
	KindInvalidInput Kind = "InvalidInput"
)

// Error is returned by every Client on failure.
type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scoring %s", e.Kind)
	}
	return fmt.Sprintf("scoring %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a scoring error from err. Context deadline and
// cancellation errors are reported as timeouts.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, err), true
	}
	return nil, false
}

// KindOf returns the kind of err, or Unavailable for unclassified errors.
func KindOf(err error) Kind {
	if se, ok := AsError(err); ok {
		return se.Kind
	}
	return KindUnavailable
}

type Request struct {
	JobTitle              string
	JobDescription        string
	RequiredSkills        []string
	NiceToHaveSkills      []string
	ExperienceRequirement string
	ResumeText            string
}

func (r Request) Validate() error {
	if r.ResumeText == "" {
		return NewError(KindInvalidInput, errors.New("resume text is empty"))
	}
	if r.JobDescription == "" && len(r.RequiredSkills) == 0 {
		return NewError(KindInvalidInput, errors.New("job has neither description nor required skills"))
	}
	return nil
}

type Result struct {
	SubScores     aggregation.SubScores
	MatchedSkills []string
	MissingSkills []string
	RedFlags      []string
	StrongSignals []string
	Concerns      []string
}

type Client interface {
	Score(ctx context.Context, req Request) (*Result, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Result, error)

func (f ClientFunc) Score(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
