package numerator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, 6, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestAllocator_Format(t *testing.T) {
	alloc := New(NewMemoryLedger(), NewMemorySequencer()).WithClock(fixedClock(2026))

	number, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", number)

	number, err = alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", number)
}

func TestAllocator_PatternAndUniqueness(t *testing.T) {
	alloc := New(NewMemoryLedger(), NewMemorySequencer()).WithClock(fixedClock(2026))
	pattern := regexp.MustCompile(`^QUO-2026-\d{5,}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("QUO"))
		require.NoError(t, err)
		assert.Regexp(t, pattern, number)
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
}

func TestAllocator_ScopeIsolation(t *testing.T) {
	// Different owners, prefixes and years never collide even when the
	// numeric suffix repeats.
	alloc := New(NewMemoryLedger(), NewMemorySequencer()).WithClock(fixedClock(2026))

	inv, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	quo, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("QUO"))
	require.NoError(t, err)
	other, err := alloc.Allocate(context.Background(), "owner-2", DefaultConfig("INV"))
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", inv)
	assert.Equal(t, "QUO-2026-00001", quo)
	assert.Equal(t, "INV-2026-00001", other)
	assert.NotEqual(t, inv, quo)
}

func TestAllocator_YearFromClock(t *testing.T) {
	ledger := NewMemoryLedger()
	seq := NewMemorySequencer()

	alloc := New(ledger, seq).WithClock(fixedClock(2026))
	first, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", first)

	// Rolling the clock over starts an independent scope.
	alloc = New(ledger, seq).WithClock(fixedClock(2027))
	next, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", next)
}

func TestAllocator_SourceCandidateAccepted(t *testing.T) {
	alloc := New(NewMemoryLedger(), NewMemorySequencer()).
		WithClock(fixedClock(2026)).
		WithSuffixSource(CandidateFunc(func(_ context.Context, _ Scope) (int64, error) {
			return 4711, nil
		}))

	number, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-04711", number)
}

func TestAllocator_SourceCollisionFallsBackToSequence(t *testing.T) {
	ledger := NewMemoryLedger()
	scope := Scope{OwnerID: "owner-1", Prefix: "INV", Year: 2026}
	ledger.Reserve(scope, "INV-2026-04711")

	alloc := New(ledger, NewMemorySequencer()).
		WithClock(fixedClock(2026)).
		WithSuffixSource(CandidateFunc(func(_ context.Context, _ Scope) (int64, error) {
			return 4711, nil
		}))

	number, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", number)
}

func TestAllocator_SourceErrorFallsBackToSequence(t *testing.T) {
	alloc := New(NewMemoryLedger(), NewMemorySequencer()).
		WithClock(fixedClock(2026)).
		WithSuffixSource(CandidateFunc(func(_ context.Context, _ Scope) (int64, error) {
			return 0, errors.New("upstream unavailable")
		}))

	number, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", number)
}

func TestAllocator_Exhaustion(t *testing.T) {
	// Every candidate the allocator can produce is already taken.
	ledger := NewMemoryLedger()
	scope := Scope{OwnerID: "owner-1", Prefix: "INV", Year: 2026}
	for i := 1; i <= 20; i++ {
		ledger.Reserve(scope, fmt.Sprintf("INV-2026-%05d", i))
	}

	alloc := New(ledger, NewMemorySequencer()).WithClock(fixedClock(2026))
	_, err := alloc.Allocate(context.Background(), "owner-1", DefaultConfig("INV"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeAllocationExhausted))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("INV-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("QUO-2025-7"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
	assert.Equal(t, int64(-1), ParseNumber("INV-2026-"))
	assert.Equal(t, int64(-1), ParseNumber("INV-2026-00042x"))
}

func TestScope_Key(t *testing.T) {
	scope := Scope{OwnerID: "owner-1", Prefix: "INV", Year: 2026}
	assert.Equal(t, "owner-1_INV_2026", scope.Key())
}
