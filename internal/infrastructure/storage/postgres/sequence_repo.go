package postgres

import (
	"context"
	"fmt"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/numerator"
)

// SequenceRepo hands out monotonically increasing sequence values.
// The upsert-RETURNING statement is atomic under concurrent allocations:
// each caller sees a distinct value.
type SequenceRepo struct {
	txManager *TxManager
}

// NewSequenceRepo creates a sequence repository.
func NewSequenceRepo(txManager *TxManager) *SequenceRepo {
	return &SequenceRepo{txManager: txManager}
}

// Next implements numerator.Sequencer.
func (r *SequenceRepo) Next(ctx context.Context, key string) (int64, error) {
	sql := `
		INSERT INTO doc_sequences (key, value, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = doc_sequences.value + 1, updated_at = NOW()
		RETURNING value
	`

	var value int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, key).Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", key, err)
	}
	return value, nil
}

// NumberLedger adapts the document repository to the allocator's ledger.
type NumberLedger struct {
	docs document.Repository
}

// NewNumberLedger creates a ledger backed by the documents table.
func NewNumberLedger(docs document.Repository) *NumberLedger {
	return &NumberLedger{docs: docs}
}

// NumberExists implements numerator.Ledger.
func (l *NumberLedger) NumberExists(ctx context.Context, scope numerator.Scope, number string) (bool, error) {
	docType := document.TypeInvoice
	if scope.Prefix == document.TypeQuote.NumberPrefix() {
		docType = document.TypeQuote
	}
	return l.docs.NumberExists(ctx, scope.OwnerID, docType, number)
}

var (
	_ numerator.Sequencer = (*SequenceRepo)(nil)
	_ numerator.Ledger    = (*NumberLedger)(nil)
)
