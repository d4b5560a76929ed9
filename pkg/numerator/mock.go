package numerator

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger is an in-memory Ledger for tests and prototyping.
type MemoryLedger struct {
	mu    sync.Mutex
	taken map[string]bool
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{taken: make(map[string]bool)}
}

// NumberExists implements Ledger.
func (l *MemoryLedger) NumberExists(_ context.Context, scope Scope, number string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taken[scope.Key()+"/"+number], nil
}

// Reserve marks a number as taken within the scope.
func (l *MemoryLedger) Reserve(scope Scope, number string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.taken[scope.Key()+"/"+number] = true
}

// MemorySequencer is an in-memory Sequencer for tests and prototyping.
type MemorySequencer struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemorySequencer creates a sequencer with all sequences at zero.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{values: make(map[string]int64)}
}

// Next implements Sequencer.
func (s *MemorySequencer) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key], nil
}

// MockGenerator returns predictable numbers for service tests.
type MockGenerator struct {
	mu      sync.Mutex
	counter int64

	// Err, when set, is returned from every Allocate call.
	Err error
}

// NewMockGenerator creates a mock starting at 1.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Allocate implements Generator.
func (m *MockGenerator) Allocate(_ context.Context, _ string, cfg Config) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	pad := cfg.PadWidth
	if pad == 0 {
		pad = 5
	}
	return fmt.Sprintf("%s-2026-%0*d", cfg.Prefix, pad, m.counter), nil
}

var (
	_ Ledger    = (*MemoryLedger)(nil)
	_ Sequencer = (*MemorySequencer)(nil)
	_ Generator = (*MockGenerator)(nil)
)
