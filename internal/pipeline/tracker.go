package pipeline

import (
	"fmt"
)

const (
	screenedIn  = "screened-in"
	screenedOut = "screened-out"
)

// Move is a requested stage change for one resume.
type Move struct {
	// ResumeStatus is the screening status of the resume at request time.
	ResumeStatus string
	From         Stage
	To           Stage
	// Skip allows a non-adjacent forward jump. It must come from an explicit
	// user action and is recorded in the audit trail.
	Skip bool
}

// Tracker holds the stage rules. It has no state of its own.
type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Validate returns nil when the move is allowed.
//
// Moves go forward one stage at a time, or further with Skip. Any non-terminal
// stage can move to rejected. Hired and rejected accept no moves. Leaving
// screening forward needs a terminal screening status; rejection does not.
func (t *Tracker) Validate(m Move) error {
	if !m.From.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, m.From)
	}
	if !m.To.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, m.To)
	}
	if m.From.Terminal() {
		return t.invalid(m, "stage is terminal")
	}
	if m.From == m.To {
		return t.invalid(m, "resume is already in this stage")
	}
	if m.To == StageRejected {
		return nil
	}

	from, to := order[m.From], order[m.To]
	if to < from {
		return t.invalid(m, "stages only move forward")
	}
	if to > from+1 && !m.Skip {
		return t.invalid(m, "stage is not adjacent, use skip")
	}
	if m.From == StageScreening && m.ResumeStatus != screenedIn && m.ResumeStatus != screenedOut {
		return fmt.Errorf("%w: %w (status %q)", ErrInvalidTransition, ErrNotScreened, m.ResumeStatus)
	}
	return nil
}

// Allowed lists the stages reachable from the given one without Skip.
func (t *Tracker) Allowed(from Stage, resumeStatus string) []Stage {
	var allowed []Stage
	for _, to := range Stages() {
		if t.Validate(Move{ResumeStatus: resumeStatus, From: from, To: to}) == nil {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

func (t *Tracker) invalid(m Move, reason string) error {
	return fmt.Errorf("%w: %s -> %s: %s", ErrInvalidTransition, m.From, m.To, reason)
}
