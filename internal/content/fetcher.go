// Package content retrieves the text of a resume from its stored file
// reference.
package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrContentUnavailable = errors.New("resume content unavailable")

// Fetcher resolves an opaque file reference to plain text. Any failure is
// reported as ErrContentUnavailable.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

func unavailable(ref string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrContentUnavailable, ref)
	}
	return fmt.Errorf("%w: %s: %v", ErrContentUnavailable, ref, err)
}

// MemoryFetcher serves text from a map. Used for local runs and tests.
type MemoryFetcher struct {
	mu    sync.RWMutex
	texts map[string]string
}

func NewMemoryFetcher(texts map[string]string) *MemoryFetcher {
	m := &MemoryFetcher{texts: make(map[string]string, len(texts))}
	for k, v := range texts {
		m.texts[k] = v
	}
	return m
}

func (m *MemoryFetcher) Put(ref, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[ref] = text
}

func (m *MemoryFetcher) Fetch(_ context.Context, ref string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.texts[ref]
	if !ok || text == "" {
		return "", unavailable(ref, nil)
	}
	return text, nil
}
