package document

import (
	"context"
	"fmt"
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/tx"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/numerator"
)

// Service provides business logic for invoice and quote records.
// Totals are always recomputed server-side; the document number is
// allocated once at creation and never changes afterwards.
type Service struct {
	repo    Repository
	numbers numerator.Generator
	txm     tx.Manager
}

// NewService creates a document service.
func NewService(repo Repository, numbers numerator.Generator) *Service {
	return &Service{repo: repo, numbers: numbers}
}

// WithTxManager makes Create run number allocation and insert inside a
// single transaction, so a failed insert releases the allocated number.
func (s *Service) WithTxManager(m tx.Manager) *Service {
	s.txm = m
	return s
}

// inTransaction runs fn transactionally when a manager is configured,
// directly otherwise.
func (s *Service) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txm == nil {
		return fn(ctx)
	}
	return s.txm.RunInTransaction(ctx, fn)
}

// CreateInput is the payload for creating a document.
type CreateInput struct {
	Type              Type            `json:"type"`
	CounterpartyName  string          `json:"counterpartyName"`
	CounterpartyEmail string          `json:"counterpartyEmail"`
	IssueDate         time.Time       `json:"issueDate"`
	DueDate           time.Time       `json:"dueDate"`
	Items             []LineItemInput `json:"items"`
	Discount          DiscountPolicy  `json:"discount"`
	Tax               types.Money     `json:"tax"`
}

// UpdateInput is the payload for updating a draft document.
// The document number and type are immutable and therefore absent.
type UpdateInput struct {
	CounterpartyName  string          `json:"counterpartyName"`
	CounterpartyEmail string          `json:"counterpartyEmail"`
	IssueDate         time.Time       `json:"issueDate"`
	DueDate           time.Time       `json:"dueDate"`
	Items             []LineItemInput `json:"items"`
	Discount          DiscountPolicy  `json:"discount"`
	Tax               types.Money     `json:"tax"`

	// Version is the version the caller last read, for optimistic locking
	Version int `json:"version"`
}

// Create computes totals, allocates a number and persists a new draft.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Record, error) {
	if in.Type != TypeInvoice && in.Type != TypeQuote {
		return nil, apperror.NewValidation("invalid document type").
			WithDetail("field", "type").
			WithDetail("value", string(in.Type))
	}
	if in.Discount.Kind == "" {
		in.Discount = NoDiscount()
	}

	totals, items, err := ComputeTotals(in.Items, in.Discount, in.Tax)
	if err != nil {
		return nil, err
	}

	rec := NewRecord(ownerID, in.Type)
	rec.CounterpartyName = in.CounterpartyName
	rec.CounterpartyEmail = in.CounterpartyEmail
	if !in.IssueDate.IsZero() {
		rec.IssueDate = in.IssueDate
	}
	rec.DueDate = in.DueDate
	rec.Items = items
	rec.Discount = in.Discount
	rec.Totals = totals

	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.inTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.Allocate(ctx, ownerID, numerator.DefaultConfig(in.Type.NumberPrefix()))
		if err != nil {
			return fmt.Errorf("allocate document number: %w", err)
		}
		rec.Number = number

		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document created",
		"document_id", rec.ID, "type", rec.Type, "number", rec.Number)
	return rec, nil
}

// Get returns one document of the owner.
func (s *Service) Get(ctx context.Context, ownerID string, docID id.ID) (*Record, error) {
	return s.repo.GetByID(ctx, ownerID, docID)
}

// List returns a page of the owner's documents.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) (ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = DefaultListFilter().OrderBy
	}
	return s.repo.List(ctx, ownerID, filter)
}

// Update replaces the mutable fields of a draft and recomputes totals.
// Only drafts can be edited; the number never changes.
func (s *Service) Update(ctx context.Context, ownerID string, docID id.ID, in UpdateInput) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	if rec.Status != StatusDraft {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"only draft documents can be edited",
		).WithDetail("status", string(rec.Status))
	}

	if in.Discount.Kind == "" {
		in.Discount = NoDiscount()
	}
	totals, items, err := ComputeTotals(in.Items, in.Discount, in.Tax)
	if err != nil {
		return nil, err
	}

	rec.CounterpartyName = in.CounterpartyName
	rec.CounterpartyEmail = in.CounterpartyEmail
	if !in.IssueDate.IsZero() {
		rec.IssueDate = in.IssueDate
	}
	rec.DueDate = in.DueDate
	rec.Items = items
	rec.Discount = in.Discount
	rec.Totals = totals
	rec.SetVersion(in.Version)
	rec.Touch()

	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	logger.Info(ctx, "document updated", "document_id", rec.ID, "number", rec.Number)
	return rec, nil
}

// Delete soft-deletes a document.
func (s *Service) Delete(ctx context.Context, ownerID string, docID id.ID) error {
	rec, err := s.repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	if rec.Status == StatusSent {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"sent documents cannot be deleted, void them instead",
		)
	}

	if err := s.repo.Delete(ctx, ownerID, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info(ctx, "document deleted", "document_id", docID)
	return nil
}

// SetStatus performs a lifecycle transition with legality checks.
func (s *Service) SetStatus(ctx context.Context, ownerID string, docID id.ID, to Status) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	if err := rec.Transition(to); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update document status: %w", err)
	}

	logger.Info(ctx, "document status changed",
		"document_id", rec.ID, "number", rec.Number, "status", string(to))
	return rec, nil
}

// MarkPaid settles a sent invoice.
func (s *Service) MarkPaid(ctx context.Context, ownerID string, docID id.ID) (*Record, error) {
	return s.SetStatus(ctx, ownerID, docID, StatusPaid)
}

// MarkAccepted accepts a sent quote.
func (s *Service) MarkAccepted(ctx context.Context, ownerID string, docID id.ID) (*Record, error) {
	return s.SetStatus(ctx, ownerID, docID, StatusAccepted)
}

// Void cancels an invoice.
func (s *Service) Void(ctx context.Context, ownerID string, docID id.ID) (*Record, error) {
	return s.SetStatus(ctx, ownerID, docID, StatusVoid)
}

// MarkExpired expires a sent quote.
func (s *Service) MarkExpired(ctx context.Context, ownerID string, docID id.ID) (*Record, error) {
	return s.SetStatus(ctx, ownerID, docID, StatusExpired)
}

// PreviewTotals computes totals without persisting anything.
func (s *Service) PreviewTotals(in CreateInput) (Totals, []LineItem, error) {
	if in.Discount.Kind == "" {
		in.Discount = NoDiscount()
	}
	return ComputeTotals(in.Items, in.Discount, in.Tax)
}
