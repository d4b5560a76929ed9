package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
)

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to issue date desc", input: "", want: "issue_date DESC"},
		{name: "plain field ascending", input: "number", want: "number ASC"},
		{name: "minus prefix descending", input: "-issue_date", want: "issue_date DESC"},
		{name: "plus prefix ascending", input: "+created_at", want: "created_at ASC"},
		{name: "unknown field rejected", input: "drop table", wantErr: true},
		{name: "injection attempt rejected", input: "number; DELETE FROM documents", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrderBy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentRowRoundTrip(t *testing.T) {
	rec := document.NewRecord("owner-1", document.TypeInvoice)
	rec.Number = "INV-2026-00042"
	rec.CounterpartyName = "Acme GmbH"
	rec.CounterpartyEmail = "billing@acme.example"
	rec.DueDate = time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	totals, items, err := document.ComputeTotals(
		[]document.LineItemInput{
			{Name: "Consulting", UnitPrice: types.MustMoney("120.00"), Quantity: 2},
		},
		document.DiscountPolicy{Kind: document.DiscountPercentage, Value: types.MustMoney("10")},
		types.MustMoney("20.00"),
	)
	require.NoError(t, err)
	rec.Items = items
	rec.Totals = totals

	row, err := toRow(rec)
	require.NoError(t, err)
	require.NotNil(t, row.DueDate)

	back, err := row.toRecord()
	require.NoError(t, err)

	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Number, back.Number)
	assert.Equal(t, rec.Type, back.Type)
	assert.Equal(t, rec.Status, back.Status)
	assert.Equal(t, rec.DueDate, back.DueDate)
	require.Len(t, back.Items, 1)
	assert.True(t, back.Items[0].LineTotal.Equal(types.MustMoney("240.00")))
	assert.True(t, back.Totals.Total.Equal(rec.Totals.Total))
	assert.Equal(t, rec.Discount.Kind, back.Discount.Kind)
}

func TestDocumentRowNilDueDate(t *testing.T) {
	rec := document.NewRecord("owner-1", document.TypeQuote)
	rec.Number = "QUO-2026-00001"
	rec.CounterpartyName = "Acme GmbH"
	rec.Items = []document.LineItem{
		{Name: "Widget", UnitPrice: types.MustMoney("5.00"), Quantity: 1, LineTotal: types.MustMoney("5.00")},
	}

	row, err := toRow(rec)
	require.NoError(t, err)
	assert.Nil(t, row.DueDate)

	back, err := row.toRecord()
	require.NoError(t, err)
	assert.True(t, back.DueDate.IsZero())
}
