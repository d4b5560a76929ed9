package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/types"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/generation"
)

type stubRenderer struct {
	data []byte
	err  error
}

func (s *stubRenderer) Render(_ *document.Record) ([]byte, error) {
	return s.data, s.err
}

type panicRenderer struct{}

func (panicRenderer) Render(_ *document.Record) ([]byte, error) {
	panic("renderer blew up")
}

func deliverableRecord(t *testing.T) *document.Record {
	t.Helper()

	rec := document.NewRecord("owner-1", document.TypeInvoice)
	rec.Number = "INV-2026-00042"
	rec.CounterpartyName = "Acme GmbH"
	rec.CounterpartyEmail = "billing@acme.example"
	rec.IssueDate = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rec.DueDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	totals, items, err := document.ComputeTotals(
		[]document.LineItemInput{
			{Name: "Consulting", UnitPrice: types.MustMoney("10.00"), Quantity: 3},
		},
		document.NoDiscount(),
		types.MustMoney("5.70"),
	)
	require.NoError(t, err)
	rec.Items = items
	rec.Totals = totals
	return rec
}

func TestDeliver_Success(t *testing.T) {
	gen := &generation.MockGenerator{
		Copy: generation.EmailCopy{
			Subject: "Your invoice INV-2026-00042",
			Body:    "Please find invoice INV-2026-00042 attached.",
		},
	}
	transport := &MockTransport{}
	o := NewOrchestrator(&stubRenderer{data: []byte("%PDF-fake")}, gen, transport, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, "billing@acme.example", res.Recipient)

	require.Len(t, transport.Sent, 1)
	msg := transport.Sent[0]
	assert.Equal(t, "Your invoice INV-2026-00042", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "INV-2026-00042.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-fake"), msg.Attachments[0].Content)
}

func TestDeliver_MissingRecipientBlocksBeforeIO(t *testing.T) {
	transport := &MockTransport{}
	gen := &generation.MockGenerator{}
	o := NewOrchestrator(&stubRenderer{data: []byte("pdf")}, gen, transport, Config{})

	rec := deliverableRecord(t)
	rec.CounterpartyEmail = ""

	res := o.Deliver(context.Background(), rec, Options{})

	require.False(t, res.Success)
	assert.Equal(t, StageRequested, res.FailedAt)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeMissingRecipient))
	assert.Empty(t, transport.Sent, "transport must not be called")
	assert.Zero(t, gen.DraftCalls, "generator must not be called")
}

func TestDeliver_RecipientOverride(t *testing.T) {
	transport := &MockTransport{}
	o := NewOrchestrator(&stubRenderer{data: []byte("pdf")}, nil, transport, Config{})

	rec := deliverableRecord(t)
	rec.CounterpartyEmail = ""

	res := o.Deliver(context.Background(), rec, Options{RecipientOverride: "other@acme.example"})

	require.True(t, res.Success)
	assert.Equal(t, "other@acme.example", res.Recipient)
	require.Len(t, transport.Sent, 1)
	assert.Equal(t, "other@acme.example", transport.Sent[0].To)
}

func TestDeliver_GeneratorFailureFallsBack(t *testing.T) {
	gen := &generation.MockGenerator{CopyErr: errors.New("upstream down")}
	transport := &MockTransport{}
	o := NewOrchestrator(&stubRenderer{data: []byte("pdf")}, gen, transport, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.True(t, res.Success, "generation failure must not fail delivery")
	assert.True(t, res.UsedFallback)

	require.Len(t, transport.Sent, 1)
	msg := transport.Sent[0]
	assert.Contains(t, msg.Subject, "INV-2026-00042")
	assert.Contains(t, msg.Body, "INV-2026-00042")
	assert.Contains(t, msg.Body, "Acme GmbH")
}

func TestDeliver_NilGeneratorUsesFallback(t *testing.T) {
	transport := &MockTransport{}
	o := NewOrchestrator(&stubRenderer{data: []byte("pdf")}, nil, transport, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.True(t, res.Success)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, "Invoice INV-2026-00042", res.Subject)
}

func TestDeliver_RenderingFailure(t *testing.T) {
	transport := &MockTransport{}
	o := NewOrchestrator(
		&stubRenderer{err: apperror.NewRenderingFailure("no line items")},
		nil, transport, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.False(t, res.Success)
	assert.Equal(t, StageRendering, res.FailedAt)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeRenderingFailure))
	assert.Empty(t, transport.Sent)
}

func TestDeliver_TransportFailure(t *testing.T) {
	transport := &MockTransport{Err: errors.New("connection refused")}
	o := NewOrchestrator(&stubRenderer{data: []byte("pdf")}, nil, transport, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.False(t, res.Success)
	assert.Equal(t, StageTransmitting, res.FailedAt)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeDeliveryFailure))
}

func TestDeliver_PanicIsContained(t *testing.T) {
	o := NewOrchestrator(panicRenderer{}, nil, &MockTransport{}, Config{})

	res := o.Deliver(context.Background(), deliverableRecord(t), Options{})

	require.False(t, res.Success)
	assert.Equal(t, StageFailed, res.FailedAt)
	require.Error(t, res.Err)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeInternal))
}

func TestFallbackCopy_QuoteSubject(t *testing.T) {
	rec := deliverableRecord(t)
	rec.Type = document.TypeQuote
	rec.Number = "QUO-2026-00007"

	subject, body := fallbackCopy(rec)
	assert.Equal(t, "Quote QUO-2026-00007", subject)
	assert.Contains(t, body, "QUO-2026-00007")
	assert.Contains(t, body, "quote")
}

func TestFallbackCopy_TotalClause(t *testing.T) {
	rec := deliverableRecord(t)
	_, body := fallbackCopy(rec)
	assert.Contains(t, body, "with a total of 35.70")

	zero := deliverableRecord(t)
	zero.Totals = document.Totals{}
	_, body = fallbackCopy(zero)
	assert.NotContains(t, body, "with a total of")
	assert.Contains(t, body, zero.Number)
}
