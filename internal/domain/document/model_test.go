package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
)

func validRecord(docType Type) *Record {
	rec := NewRecord("owner-1", docType)
	rec.CounterpartyName = "Acme GmbH"
	rec.CounterpartyEmail = "billing@acme.example"
	rec.Items = []LineItem{
		{Name: "Consulting", UnitPrice: types.MustMoney("10.00"), Quantity: 3, LineTotal: types.MustMoney("30.00")},
	}
	return rec
}

func TestNewRecord_Defaults(t *testing.T) {
	rec := NewRecord("owner-1", TypeInvoice)

	assert.Equal(t, StatusDraft, rec.Status)
	assert.Equal(t, "owner-1", rec.OwnerID)
	assert.False(t, rec.ID.String() == "")
	assert.Equal(t, 1, rec.Version)
	assert.Empty(t, rec.Number)
	assert.False(t, rec.IssueDate.IsZero())
}

func TestType_NumberPrefix(t *testing.T) {
	assert.Equal(t, "INV", TypeInvoice.NumberPrefix())
	assert.Equal(t, "QUO", TypeQuote.NumberPrefix())
}

func TestRecord_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRecord(TypeInvoice).Validate(ctx))
		assert.NoError(t, validRecord(TypeQuote).Validate(ctx))
	})

	t.Run("missing owner", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.OwnerID = ""
		assert.Error(t, rec.Validate(ctx))
	})

	t.Run("bad type", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.Type = "receipt"
		assert.Error(t, rec.Validate(ctx))
	})

	t.Run("missing counterparty", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.CounterpartyName = ""
		assert.Error(t, rec.Validate(ctx))
	})

	t.Run("bad email", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.CounterpartyEmail = "not-an-email"
		err := rec.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("empty email is allowed", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.CounterpartyEmail = ""
		assert.NoError(t, rec.Validate(ctx))
	})

	t.Run("no items", func(t *testing.T) {
		rec := validRecord(TypeInvoice)
		rec.Items = nil
		assert.Error(t, rec.Validate(ctx))
	})

	t.Run("status foreign to type", func(t *testing.T) {
		rec := validRecord(TypeQuote)
		rec.Status = StatusPaid
		assert.Error(t, rec.Validate(ctx))
	})
}

func TestRecord_Transitions(t *testing.T) {
	tests := []struct {
		docType Type
		from    Status
		to      Status
		ok      bool
	}{
		{TypeInvoice, StatusDraft, StatusSent, true},
		{TypeInvoice, StatusDraft, StatusVoid, true},
		{TypeInvoice, StatusSent, StatusPaid, true},
		{TypeInvoice, StatusSent, StatusVoid, true},
		{TypeInvoice, StatusDraft, StatusPaid, false},
		{TypeInvoice, StatusPaid, StatusDraft, false},
		{TypeInvoice, StatusVoid, StatusSent, false},
		{TypeQuote, StatusDraft, StatusSent, true},
		{TypeQuote, StatusSent, StatusAccepted, true},
		{TypeQuote, StatusSent, StatusExpired, true},
		{TypeQuote, StatusDraft, StatusAccepted, false},
		{TypeQuote, StatusDraft, StatusVoid, false},
		{TypeQuote, StatusAccepted, StatusSent, false},
	}

	for _, tt := range tests {
		name := string(tt.docType) + " " + string(tt.from) + " to " + string(tt.to)
		t.Run(name, func(t *testing.T) {
			rec := validRecord(tt.docType)
			rec.Status = tt.from

			err := rec.Transition(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, rec.Status)
			} else {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeStatusTransition))
				assert.Equal(t, tt.from, rec.Status, "status must be unchanged")
			}
		})
	}
}

func TestRecord_Deliverable(t *testing.T) {
	rec := validRecord(TypeInvoice)
	assert.True(t, rec.Deliverable())

	rec.Status = StatusVoid
	assert.False(t, rec.Deliverable())

	quote := validRecord(TypeQuote)
	quote.Status = StatusExpired
	assert.False(t, quote.Deliverable())

	quote.Status = StatusSent
	assert.True(t, quote.Deliverable())
}

func TestDiscountPolicy_Validate(t *testing.T) {
	assert.NoError(t, NoDiscount().Validate())
	assert.NoError(t, DiscountPolicy{Kind: DiscountPercentage, Value: types.MustMoney("100")}.Validate())
	assert.NoError(t, DiscountPolicy{Kind: DiscountFixedAmount, Value: types.MustMoney("5.00")}.Validate())

	assert.Error(t, DiscountPolicy{Kind: DiscountPercentage, Value: types.MustMoney("100.01")}.Validate())
	assert.Error(t, DiscountPolicy{Kind: DiscountFixedAmount, Value: types.MustMoney("-0.01")}.Validate())
	assert.Error(t, DiscountPolicy{Kind: "rebate", Value: types.Zero()}.Validate())
}
