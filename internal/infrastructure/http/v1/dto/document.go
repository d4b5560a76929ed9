package dto

import (
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
)

// --- Requests ---

// LineItemRequest is a submitted line item. Line totals are always
// recomputed server-side and therefore absent here.
type LineItemRequest struct {
	Name          string      `json:"name" binding:"required"`
	Specification string      `json:"specification"`
	UnitPrice     types.Money `json:"unitPrice"`
	Quantity      int         `json:"quantity"`
}

// DiscountRequest selects a discount policy.
type DiscountRequest struct {
	Type  string      `json:"type"`
	Value types.Money `json:"value"`
}

// CreateDocumentRequest for creating invoices and quotes.
type CreateDocumentRequest struct {
	Type              string            `json:"type" binding:"required"`
	CounterpartyName  string            `json:"counterpartyName" binding:"required"`
	CounterpartyEmail string            `json:"counterpartyEmail"`
	IssueDate         time.Time         `json:"issueDate"`
	DueDate           time.Time         `json:"dueDate"`
	Items             []LineItemRequest `json:"items" binding:"required"`
	Discount          *DiscountRequest  `json:"discount"`
	Tax               types.Money       `json:"tax"`
}

// ToInput converts the request to a service input.
func (r CreateDocumentRequest) ToInput() document.CreateInput {
	return document.CreateInput{
		Type:              document.Type(r.Type),
		CounterpartyName:  r.CounterpartyName,
		CounterpartyEmail: r.CounterpartyEmail,
		IssueDate:         r.IssueDate,
		DueDate:           r.DueDate,
		Items:             toItemInputs(r.Items),
		Discount:          toDiscount(r.Discount),
		Tax:               r.Tax,
	}
}

// UpdateDocumentRequest for editing drafts. Type and number are immutable.
type UpdateDocumentRequest struct {
	CounterpartyName  string            `json:"counterpartyName" binding:"required"`
	CounterpartyEmail string            `json:"counterpartyEmail"`
	IssueDate         time.Time         `json:"issueDate"`
	DueDate           time.Time         `json:"dueDate"`
	Items             []LineItemRequest `json:"items" binding:"required"`
	Discount          *DiscountRequest  `json:"discount"`
	Tax               types.Money       `json:"tax"`
	Version           int               `json:"version" binding:"required,min=1"`
}

// ToInput converts the request to a service input.
func (r UpdateDocumentRequest) ToInput() document.UpdateInput {
	return document.UpdateInput{
		CounterpartyName:  r.CounterpartyName,
		CounterpartyEmail: r.CounterpartyEmail,
		IssueDate:         r.IssueDate,
		DueDate:           r.DueDate,
		Items:             toItemInputs(r.Items),
		Discount:          toDiscount(r.Discount),
		Tax:               r.Tax,
		Version:           r.Version,
	}
}

// PreviewTotalsRequest computes totals without persisting anything.
type PreviewTotalsRequest struct {
	Items    []LineItemRequest `json:"items" binding:"required"`
	Discount *DiscountRequest  `json:"discount"`
	Tax      types.Money       `json:"tax"`
}

// ToInput converts the request to a service input.
func (r PreviewTotalsRequest) ToInput() document.CreateInput {
	return document.CreateInput{
		Items:    toItemInputs(r.Items),
		Discount: toDiscount(r.Discount),
		Tax:      r.Tax,
	}
}

// SendDocumentRequest for delivering a document by email.
type SendDocumentRequest struct {
	// Recipient overrides the counterparty email when set
	Recipient string `json:"recipient"`
}

// SetStatusRequest for lifecycle transitions.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func toItemInputs(items []LineItemRequest) []document.LineItemInput {
	out := make([]document.LineItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, document.LineItemInput{
			Name:          it.Name,
			Specification: it.Specification,
			UnitPrice:     it.UnitPrice,
			Quantity:      it.Quantity,
		})
	}
	return out
}

func toDiscount(d *DiscountRequest) document.DiscountPolicy {
	if d == nil {
		return document.NoDiscount()
	}
	return document.DiscountPolicy{
		Kind:  document.DiscountKind(d.Type),
		Value: d.Value,
	}
}

// --- Responses ---

// LineItemResponse is a line item with its derived total.
type LineItemResponse struct {
	Name          string `json:"name"`
	Specification string `json:"specification,omitempty"`
	UnitPrice     string `json:"unitPrice"`
	Quantity      int    `json:"quantity"`
	LineTotal     string `json:"lineTotal"`
}

// TotalsResponse is the derived financial summary.
type TotalsResponse struct {
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discountAmount"`
	Tax            string `json:"tax"`
	Total          string `json:"total"`
}

// DiscountResponse echoes the stored discount policy.
type DiscountResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DocumentResponse contains full document fields.
type DocumentResponse struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	Number            string             `json:"number"`
	Status            string             `json:"status"`
	CounterpartyName  string             `json:"counterpartyName"`
	CounterpartyEmail string             `json:"counterpartyEmail,omitempty"`
	IssueDate         time.Time          `json:"issueDate"`
	DueDate           time.Time          `json:"dueDate"`
	Items             []LineItemResponse `json:"items"`
	Discount          DiscountResponse   `json:"discount"`
	Totals            TotalsResponse     `json:"totals"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// FromRecord creates DocumentResponse from a document record.
func FromRecord(rec *document.Record) DocumentResponse {
	items := make([]LineItemResponse, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, LineItemResponse{
			Name:          it.Name,
			Specification: it.Specification,
			UnitPrice:     it.UnitPrice.StringFixed(types.MoneyScale),
			Quantity:      it.Quantity,
			LineTotal:     it.LineTotal.StringFixed(types.MoneyScale),
		})
	}

	return DocumentResponse{
		ID:                rec.ID.String(),
		Type:              string(rec.Type),
		Number:            rec.Number,
		Status:            string(rec.Status),
		CounterpartyName:  rec.CounterpartyName,
		CounterpartyEmail: rec.CounterpartyEmail,
		IssueDate:         rec.IssueDate,
		DueDate:           rec.DueDate,
		Items:             items,
		Discount: DiscountResponse{
			Type:  string(rec.Discount.Kind),
			Value: rec.Discount.Value.StringFixed(types.MoneyScale),
		},
		Totals:    FromTotals(rec.Totals),
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// FromTotals creates TotalsResponse from computed totals.
func FromTotals(t document.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal:       t.Subtotal.StringFixed(types.MoneyScale),
		DiscountAmount: t.DiscountAmount.StringFixed(types.MoneyScale),
		Tax:            t.Tax.StringFixed(types.MoneyScale),
		Total:          t.Total.StringFixed(types.MoneyScale),
	}
}

// PreviewTotalsResponse returns derived totals and line items for a preview.
type PreviewTotalsResponse struct {
	Items  []LineItemResponse `json:"items"`
	Totals TotalsResponse     `json:"totals"`
}

// DeliveryResponse reports the outcome of a send attempt.
type DeliveryResponse struct {
	Success      bool   `json:"success"`
	Recipient    string `json:"recipient,omitempty"`
	Subject      string `json:"subject,omitempty"`
	UsedFallback bool   `json:"usedFallback"`
	FailedAt     string `json:"failedAt,omitempty"`
	Error        string `json:"error,omitempty"`
	Status       string `json:"status"`
}

// FromDeliveryResult creates DeliveryResponse from a pipeline result.
func FromDeliveryResult(res delivery.Result, status document.Status) DeliveryResponse {
	out := DeliveryResponse{
		Success:      res.Success,
		Recipient:    res.Recipient,
		Subject:      res.Subject,
		UsedFallback: res.UsedFallback,
		Status:       string(status),
	}
	if !res.Success {
		out.FailedAt = string(res.FailedAt)
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
	}
	return out
}
