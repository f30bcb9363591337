// Package aggregation combines weighted sub-scores into a composite screening
// score, a fit level and a screened-in/screened-out decision.
package aggregation

import (
	"errors"
	"fmt"
	"math"
)

const (
	FitStrong   = "strong"
	FitModerate = "moderate"
	FitWeak     = "weak"
	FitPoor     = "poor"

	StatusScreenedIn  = "screened-in"
	StatusScreenedOut = "screened-out"
)

var (
	ErrInsufficientData = errors.New("insufficient data: no sub-score available")
	ErrInvalidSubScore  = errors.New("sub-score out of range")
	ErrInvalidThreshold = errors.New("invalid threshold configuration")
)

// SubScores are the five model outputs. A nil field means the model did not
// produce that signal.
type SubScores struct {
	Semantic   *float64 `json:"semantic,omitempty"`
	SkillMatch *float64 `json:"skillMatch,omitempty"`
	Experience *float64 `json:"experience,omitempty"`
	Metrics    *float64 `json:"metrics,omitempty"`
	Complexity *float64 `json:"complexity,omitempty"`
}

// Component is one weighted input of the composite.
type Component struct {
	Name   string
	Weight float64
	Value  func(SubScores) *float64
}

// DefaultComponents returns the fixed production weights.
func DefaultComponents() []Component {
	return []Component{
		{Name: "semantic", Weight: 0.40, Value: func(s SubScores) *float64 { return s.Semantic }},
		{Name: "skillMatch", Weight: 0.30, Value: func(s SubScores) *float64 { return s.SkillMatch }},
		{Name: "experience", Weight: 0.15, Value: func(s SubScores) *float64 { return s.Experience }},
		{Name: "metrics", Weight: 0.10, Value: func(s SubScores) *float64 { return s.Metrics }},
		{Name: "complexity", Weight: 0.05, Value: func(s SubScores) *float64 { return s.Complexity }},
	}
}

// Thresholds are the lower bounds of the strong, moderate and weak fit levels.
// Anything below Weak is poor.
type Thresholds struct {
	Strong   float64
	Moderate float64
	Weak     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Strong: 80, Moderate: 60, Weak: 40}
}

func (t Thresholds) Validate() error {
	for _, v := range []float64{t.Strong, t.Moderate, t.Weak} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("%w: boundary %v outside [0,100]", ErrInvalidThreshold, v)
		}
	}
	if !(t.Strong > t.Moderate && t.Moderate > t.Weak) {
		return fmt.Errorf("%w: expected strong > moderate > weak, got %v/%v/%v", ErrInvalidThreshold, t.Strong, t.Moderate, t.Weak)
	}
	return nil
}

func (t Thresholds) Classify(composite float64) string {
	switch {
	case composite >= t.Strong:
		return FitStrong
	case composite >= t.Moderate:
		return FitModerate
	case composite >= t.Weak:
		return FitWeak
	default:
		return FitPoor
	}
}

// Outcome is the result of aggregating one resume's sub-scores.
type Outcome struct {
	Composite float64
	FitLevel  string
	Status    string
	// Used lists the components that contributed to the composite.
	Used []string
}

func (o Outcome) ScreenedIn() bool {
	return o.Status == StatusScreenedIn
}

type Aggregator struct {
	components    []Component
	thresholds    Thresholds
	passThreshold float64
}

type Option func(*Aggregator)

func WithThresholds(t Thresholds) Option {
	return func(a *Aggregator) {
		a.thresholds = t
	}
}

func WithPassThreshold(v float64) Option {
	return func(a *Aggregator) {
		a.passThreshold = v
	}
}

// New returns an aggregator with the default weights. The pass threshold
// defaults to the moderate boundary.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		components: DefaultComponents(),
		thresholds: DefaultThresholds(),
	}
	a.passThreshold = math.NaN()
	for _, o := range opts {
		o(a)
	}
	if math.IsNaN(a.passThreshold) {
		a.passThreshold = a.thresholds.Moderate
	}

	if err := a.thresholds.Validate(); err != nil {
		return nil, err
	}
	if a.passThreshold < a.thresholds.Moderate || a.passThreshold > 100 {
		return nil, fmt.Errorf("%w: pass threshold %v must be within [moderate=%v, 100]", ErrInvalidThreshold, a.passThreshold, a.thresholds.Moderate)
	}
	return a, nil
}

func (a *Aggregator) Thresholds() Thresholds {
	return a.thresholds
}

func (a *Aggregator) PassThreshold() float64 {
	return a.passThreshold
}

// Aggregate computes the weighted composite over the present sub-scores,
// renormalizing the weights of the present ones to sum to one.
func (a *Aggregator) Aggregate(scores SubScores) (Outcome, error) {
	var (
		sum    float64
		weight float64
		used   []string
	)
	for _, c := range a.components {
		v := c.Value(scores)
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || *v < 0 || *v > 100 {
			return Outcome{}, fmt.Errorf("%w: %s=%v", ErrInvalidSubScore, c.Name, *v)
		}
		sum += c.Weight * *v
		weight += c.Weight
		used = append(used, c.Name)
	}
	if weight == 0 {
		return Outcome{}, ErrInsufficientData
	}

	// rounded to nine decimals so that weight arithmetic does not move a
	// score across a threshold or past 100
	composite := math.Round(sum/weight*1e9) / 1e9
	composite = math.Max(0, math.Min(100, composite))

	status := StatusScreenedOut
	if composite >= a.passThreshold {
		status = StatusScreenedIn
	}
	return Outcome{
		Composite: composite,
		FitLevel:  a.thresholds.Classify(composite),
		Status:    status,
		Used:      used,
	}, nil
}
