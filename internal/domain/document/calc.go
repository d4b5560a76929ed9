package document

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
)

// LineItemInput is the raw line-item data as submitted by a caller.
// LineTotal is intentionally absent: it is derived, never accepted.
type LineItemInput struct {
	Name          string      `json:"name"`
	Specification string      `json:"specification,omitempty"`
	UnitPrice     types.Money `json:"unitPrice"`
	Quantity      int         `json:"quantity"`
}

// ComputeTotals derives document totals from raw line items, a discount policy
// and a tax amount. All arithmetic is exact decimal; the function is pure and
// deterministic, so repeated recomputation of the same input yields identical
// results.
//
// Rules:
//   - each line total = unitPrice * quantity, rounded to money scale
//   - subtotal = sum of line totals in the given order
//   - percentage discount = subtotal * pct/100; fixed discount = min(value, subtotal)
//   - total = max(0, subtotal - discount) + tax
func ComputeTotals(items []LineItemInput, policy DiscountPolicy, tax types.Money) (Totals, []LineItem, error) {
	if len(items) == 0 {
		return Totals{}, nil, apperror.NewValidation("at least one line item is required").
			WithDetail("field", "items")
	}

	if tax.IsNegative() {
		return Totals{}, nil, apperror.NewValidation("tax must not be negative").
			WithDetail("field", "tax").
			WithDetail("value", tax.String())
	}

	if err := policy.Validate(); err != nil {
		return Totals{}, nil, err
	}

	lines := make([]LineItem, 0, len(items))
	subtotal := types.Zero()

	for i, in := range items {
		if strings.TrimSpace(in.Name) == "" {
			return Totals{}, nil, apperror.NewValidation("line item name is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if in.Quantity < 1 {
			return Totals{}, nil, apperror.NewValidation("quantity must be at least 1").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return Totals{}, nil, apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}

		lineTotal := types.RoundMoney(in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))))
		lines = append(lines, LineItem{
			Name:          in.Name,
			Specification: in.Specification,
			UnitPrice:     in.UnitPrice,
			Quantity:      in.Quantity,
			LineTotal:     lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	discount := discountAmount(subtotal, policy)

	preTax := subtotal.Sub(discount)
	if preTax.IsNegative() {
		preTax = types.Zero()
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Tax:            tax,
		Total:          preTax.Add(tax),
	}, lines, nil
}

// discountAmount applies the policy to the subtotal. The result never exceeds
// the subtotal, so the pre-tax total cannot go negative.
func discountAmount(subtotal types.Money, policy DiscountPolicy) types.Money {
	var amount types.Money
	switch policy.Kind {
	case DiscountFixedAmount:
		amount = policy.Value
	default:
		amount = subtotal.Mul(policy.Value).Div(hundred)
	}

	amount = types.RoundMoney(amount)
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

var hundred = types.MustMoney("100")
