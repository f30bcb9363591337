// Package jobcode issues the seven digit public codes of job openings.
package jobcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/pkg/metrics"
	"go.uber.org/zap"
)

const (
	minCode = 1_000_000
	maxCode = 9_999_999

	DefaultMaxAttempts = 10
)

var ErrCodeGenerationExhausted = errors.New("job code generation exhausted")

// CodeChecker reports whether a code was ever issued, deleted openings included.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// RandFunc returns a uniformly distributed integer in [0, n).
type RandFunc func(n int64) (int64, error)

type Generator struct {
	checker     CodeChecker
	maxAttempts int
	rand        RandFunc
}

type Option func(*Generator)

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithRand(fn RandFunc) Option {
	return func(g *Generator) {
		g.rand = fn
	}
}

func NewGenerator(checker CodeChecker, opts ...Option) *Generator {
	g := &Generator{
		checker:     checker,
		maxAttempts: DefaultMaxAttempts,
		rand:        cryptoRand,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns a code that is not in use at the time of the check.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	return g.Assign(ctx, func(string) error { return nil })
}

// Assign generates a code and hands it to persist. A unique violation
// reported by persist consumes one attempt and a new code is tried.
func (g *Generator) Assign(ctx context.Context, persist func(code string) error) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code, free, err := g.unused(ctx, attempt)
		if err != nil {
			return "", err
		}
		if !free {
			continue
		}

		err = persist(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return "", err
		}
		g.collision(code, attempt, "job code taken concurrently")
	}
	return "", ErrCodeGenerationExhausted
}

// unused draws one candidate and reports whether it is free in the store.
func (g *Generator) unused(ctx context.Context, attempt int) (string, bool, error) {
	code, err := g.candidate()
	if err != nil {
		return "", false, err
	}

	exists, err := g.checker.CodeExists(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("checking job code: %w", err)
	}
	if exists {
		g.collision(code, attempt, "job code collision")
		return "", false, nil
	}
	return code, true, nil
}

func (g *Generator) collision(code string, attempt int, msg string) {
	metrics.IncreaseJobCodeCollisions()
	zap.S().Named("jobcode").Debugw(msg, "code", code, "attempt", attempt)
}

func (g *Generator) candidate() (string, error) {
	n, err := g.rand(maxCode - minCode + 1)
	if err != nil {
		return "", fmt.Errorf("reading random source: %w", err)
	}
	return strconv.FormatInt(minCode+n, 10), nil
}

// Valid reports whether s has the shape of a job code.
func Valid(s string) bool {
	if len(s) != 7 || s[0] == '0' {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func cryptoRand(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
