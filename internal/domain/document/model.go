// Package document provides the billing document aggregate (invoices and quotes)
// and the monetary line-item calculator.
package document

import (
	"context"
	"regexp"
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/entity"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Type discriminates invoices from quotes.
type Type string

const (
	TypeInvoice Type = "invoice"
	TypeQuote   Type = "quote"
)

// NumberPrefix returns the document number prefix for the type.
func (t Type) NumberPrefix() string {
	if t == TypeQuote {
		return "QUO"
	}
	return "INV"
}

// Status is the lifecycle state of a document.
// Invoices: draft -> sent -> paid, void from draft/sent.
// Quotes: draft -> sent -> accepted, expired from sent.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusPaid     Status = "paid"
	StatusVoid     Status = "void"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

var statusTransitions = map[Type]map[Status][]Status{
	TypeInvoice: {
		StatusDraft: {StatusSent, StatusVoid},
		StatusSent:  {StatusPaid, StatusVoid},
	},
	TypeQuote: {
		StatusDraft: {StatusSent},
		StatusSent:  {StatusAccepted, StatusExpired},
	},
}

// ValidStatus reports whether s is a legal status for documents of type t.
func ValidStatus(t Type, s Status) bool {
	switch t {
	case TypeInvoice:
		return s == StatusDraft || s == StatusSent || s == StatusPaid || s == StatusVoid
	case TypeQuote:
		return s == StatusDraft || s == StatusSent || s == StatusAccepted || s == StatusExpired
	}
	return false
}

// LineItem is a single priced entry on a document.
// LineTotal is always recomputed server-side, never trusted from input.
type LineItem struct {
	Name          string      `json:"name"`
	Specification string      `json:"specification,omitempty"`
	UnitPrice     types.Money `json:"unitPrice"`
	Quantity      int         `json:"quantity"`
	LineTotal     types.Money `json:"lineTotal"`
}

// DiscountKind selects the discount policy variant.
type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "fixed"
)

// DiscountPolicy is the rule used to reduce a document's subtotal.
type DiscountPolicy struct {
	Kind  DiscountKind `json:"type"`
	Value types.Money  `json:"value"`
}

// NoDiscount is a zero percentage discount.
func NoDiscount() DiscountPolicy {
	return DiscountPolicy{Kind: DiscountPercentage, Value: types.Zero()}
}

// Validate checks the discount policy invariants.
func (p DiscountPolicy) Validate() error {
	switch p.Kind {
	case DiscountPercentage:
		if p.Value.IsNegative() || p.Value.GreaterThan(types.MustMoney("100")) {
			return apperror.NewValidation("percentage discount must be between 0 and 100").
				WithDetail("field", "discount.value").
				WithDetail("value", p.Value.String())
		}
	case DiscountFixedAmount:
		if p.Value.IsNegative() {
			return apperror.NewValidation("fixed discount must not be negative").
				WithDetail("field", "discount.value").
				WithDetail("value", p.Value.String())
		}
	default:
		return apperror.NewValidation("invalid discount type").
			WithDetail("field", "discount.type").
			WithDetail("value", string(p.Kind))
	}
	return nil
}

// Totals holds the derived financial summary of a document.
// Invariant: Total == max(0, Subtotal - DiscountAmount) + Tax.
type Totals struct {
	Subtotal       types.Money `json:"subtotal"`
	DiscountAmount types.Money `json:"discountAmount"`
	Tax            types.Money `json:"tax"`
	Total          types.Money `json:"total"`
}

// Record is an invoice or quote owned by a single owner.
type Record struct {
	entity.BaseDocument

	OwnerID string `db:"owner_id" json:"ownerId"`
	Type    Type   `db:"type" json:"type"`

	// Number is the document number (allocated once at creation, immutable)
	Number string `db:"number" json:"number"`

	CounterpartyName  string `db:"counterparty_name" json:"counterpartyName"`
	CounterpartyEmail string `db:"counterparty_email" json:"counterpartyEmail,omitempty"`

	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	// DueDate is the payment due date for invoices, expiry date for quotes.
	DueDate time.Time `db:"due_date" json:"dueDate"`

	Status Status `db:"status" json:"status"`

	// Items is the ordered table part. Order affects display, not the sums.
	Items []LineItem `db:"-" json:"items"`

	Discount DiscountPolicy `db:"-" json:"discount"`
	Totals   Totals         `db:"-" json:"totals"`
}

// NewRecord creates a new draft document for the owner.
func NewRecord(ownerID string, docType Type) *Record {
	return &Record{
		BaseDocument: entity.NewBaseDocument(),
		OwnerID:      ownerID,
		Type:         docType,
		Status:       StatusDraft,
		IssueDate:    time.Now().UTC(),
		Discount:     NoDiscount(),
		Items:        make([]LineItem, 0),
	}
}

// Validate implements entity.Validatable.
func (r *Record) Validate(ctx context.Context) error {
	if r.OwnerID == "" {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}

	if r.Type != TypeInvoice && r.Type != TypeQuote {
		return apperror.NewValidation("invalid document type").
			WithDetail("field", "type").
			WithDetail("value", string(r.Type))
	}

	if r.CounterpartyName == "" {
		return apperror.NewValidation("counterparty name is required").
			WithDetail("field", "counterpartyName")
	}

	if r.CounterpartyEmail != "" && !emailRE.MatchString(r.CounterpartyEmail) {
		return apperror.NewValidation("invalid counterparty email").
			WithDetail("field", "counterpartyEmail")
	}

	if r.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}

	if !ValidStatus(r.Type, r.Status) {
		return apperror.NewValidation("invalid status for document type").
			WithDetail("field", "status").
			WithDetail("value", string(r.Status))
	}

	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one line item is required").
			WithDetail("field", "items")
	}

	if err := r.Discount.Validate(); err != nil {
		return err
	}

	return nil
}

// CanTransition reports whether the status change is legal for this document.
func (r *Record) CanTransition(to Status) bool {
	for _, next := range statusTransitions[r.Type][r.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the document to the target status or fails with a
// business rule violation.
func (r *Record) Transition(to Status) error {
	if !r.CanTransition(to) {
		return apperror.NewBusinessRule(
			apperror.CodeStatusTransition,
			"illegal status transition",
		).
			WithDetail("from", string(r.Status)).
			WithDetail("to", string(to)).
			WithDetail("document_id", r.ID.String())
	}
	r.Status = to
	r.Touch()
	return nil
}

// Deliverable reports whether the document may still be sent by email.
func (r *Record) Deliverable() bool {
	return r.Status != StatusVoid && r.Status != StatusExpired
}

var _ entity.Validatable = (*Record)(nil)
