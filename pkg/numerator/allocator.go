// Package numerator provides document number allocation.
// Numbers follow the pattern PREFIX-YYYY-NNNNN and are unique within
// (owner, year, document type).
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "QUO")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// MaxAttempts bounds the total number of candidates tried before
	// giving up with AllocationExhausted (default 10)
	MaxAttempts int

	// SourceAttempts bounds how many candidates are requested from the
	// suffix source before falling back to the sequence (default 3)
	SourceAttempts int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:         prefix,
		PadWidth:       5,
		MaxAttempts:    10,
		SourceAttempts: 3,
	}
}

// Generator allocates document numbers.
// This is the domain contract - Allocator is the production implementation.
type Generator interface {
	// Allocate returns a number not yet assigned within (owner, current year, prefix).
	Allocate(ctx context.Context, ownerID string, cfg Config) (string, error)
}

// Scope identifies one allocation namespace.
type Scope struct {
	OwnerID string
	Prefix  string
	Year    int
}

// Key returns the sequence key for the scope.
func (s Scope) Key() string {
	return fmt.Sprintf("%s_%s_%d", s.OwnerID, s.Prefix, s.Year)
}

// Ledger answers whether a number is already taken within a scope.
type Ledger interface {
	NumberExists(ctx context.Context, scope Scope, number string) (bool, error)
}

// Sequencer hands out monotonically increasing values per key.
// The deterministic fallback when the suffix source yields collisions.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// SuffixSource proposes candidate numeric suffixes for a scope.
// Optional; candidates are never trusted for uniqueness.
type SuffixSource interface {
	Candidate(ctx context.Context, scope Scope) (int64, error)
}

// CandidateFunc adapts a function to the SuffixSource interface.
type CandidateFunc func(ctx context.Context, scope Scope) (int64, error)

// Candidate implements SuffixSource.
func (f CandidateFunc) Candidate(ctx context.Context, scope Scope) (int64, error) {
	return f(ctx, scope)
}

// Allocator produces unique year-scoped document numbers.
// Candidate generation may be delegated to a suffix source; the allocator
// remains responsible for uniqueness and checks every candidate against the
// ledger before handing it out.
type Allocator struct {
	ledger    Ledger
	sequencer Sequencer
	source    SuffixSource

	// now is injectable for tests; allocation year always comes from the
	// wall clock, never from user-supplied dates.
	now func() time.Time
}

// New creates an allocator with the deterministic sequence only.
func New(ledger Ledger, sequencer Sequencer) *Allocator {
	return &Allocator{
		ledger:    ledger,
		sequencer: sequencer,
		now:       time.Now,
	}
}

// WithSuffixSource attaches an optional candidate source.
func (a *Allocator) WithSuffixSource(source SuffixSource) *Allocator {
	a.source = source
	return a
}

// WithClock overrides the wall clock (tests only).
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Allocate implements Generator.
func (a *Allocator) Allocate(ctx context.Context, ownerID string, cfg Config) (string, error) {
	if cfg.PadWidth == 0 {
		cfg.PadWidth = 5
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.SourceAttempts == 0 {
		cfg.SourceAttempts = 3
	}

	scope := Scope{OwnerID: ownerID, Prefix: cfg.Prefix, Year: a.now().UTC().Year()}

	attempts := 0
	sourceTried := 0

	for attempts < cfg.MaxAttempts {
		var suffix int64
		var err error

		if a.source != nil && sourceTried < cfg.SourceAttempts {
			sourceTried++
			suffix, err = a.source.Candidate(ctx, scope)
			if err != nil || suffix < 1 {
				// A failing source is not fatal: fall through to the sequence.
				logger.Warn(ctx, "number suffix source failed, using sequence",
					"scope", scope.Key(), "error", err)
				sourceTried = cfg.SourceAttempts
				continue
			}
		} else {
			suffix, err = a.sequencer.Next(ctx, scope.Key())
			if err != nil {
				return "", fmt.Errorf("next sequence value: %w", err)
			}
		}

		attempts++
		number := a.format(cfg, scope, suffix)

		taken, err := a.ledger.NumberExists(ctx, scope, number)
		if err != nil {
			return "", fmt.Errorf("check number: %w", err)
		}
		if !taken {
			return number, nil
		}
	}

	return "", apperror.NewAllocationExhausted(scope.Key(), attempts)
}

// format creates the final number string: PREFIX-YYYY-NNNNN.
func (a *Allocator) format(cfg Config, scope Scope, num int64) string {
	return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, scope.Year, cfg.PadWidth, num)
}

// ParseNumber extracts the numeric suffix from a PREFIX-YYYY-NNNNN number.
// Returns -1 if the string does not carry one.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}

var _ Generator = (*Allocator)(nil)
