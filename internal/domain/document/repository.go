package document

import (
	"context"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
)

// ListFilter carries the common list query parameters.
type ListFilter struct {
	// Search is a substring match on number and counterparty name
	Search string

	// Type narrows to one document type when set
	Type Type

	// Status narrows to one status when set
	Status Status

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy is a comma-separated list of fields, "-" prefix for DESC
	// e.g. "-issue_date,number"
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns a filter with sensible pagination defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		OrderBy: "-issue_date",
		Limit:   50,
		Offset:  0,
	}
}

// ListResult wraps a page of records with the total count.
type ListResult struct {
	Items      []*Record
	TotalCount int64
	Limit      int
	Offset     int
}

// Repository defines persistence for document records.
// All reads and writes are scoped to an owner; a record is never visible
// outside the owner that created it.
type Repository interface {
	Create(ctx context.Context, rec *Record) error

	// GetByID returns the record or a NotFound AppError.
	GetByID(ctx context.Context, ownerID string, docID id.ID) (*Record, error)

	// Update persists changes using optimistic locking on Version.
	// Returns a ConcurrentModification AppError when the stored version
	// does not match.
	Update(ctx context.Context, rec *Record) error

	// Delete marks the record deleted without removing the row.
	Delete(ctx context.Context, ownerID string, docID id.ID) error

	List(ctx context.Context, ownerID string, filter ListFilter) (ListResult, error)

	// NumberExists reports whether a number is already assigned within
	// (owner, type). Backs the numbering ledger.
	NumberExists(ctx context.Context, ownerID string, docType Type, number string) (bool, error)
}
