package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/entity"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
)

const documentsTable = "documents"

var documentColumns = []string{
	"id", "owner_id", "type", "number",
	"counterparty_name", "counterparty_email",
	"issue_date", "due_date", "status",
	"items", "discount", "totals",
	"deletion_mark", "version", "created_at", "updated_at",
}

// documentRow is the flat storage shape of a document record.
// Line items, discount and totals live in JSONB columns.
type documentRow struct {
	ID                id.ID      `db:"id"`
	OwnerID           string     `db:"owner_id"`
	Type              string     `db:"type"`
	Number            string     `db:"number"`
	CounterpartyName  string     `db:"counterparty_name"`
	CounterpartyEmail string     `db:"counterparty_email"`
	IssueDate         time.Time  `db:"issue_date"`
	DueDate           *time.Time `db:"due_date"`
	Status            string     `db:"status"`
	Items             []byte     `db:"items"`
	Discount          []byte     `db:"discount"`
	Totals            []byte     `db:"totals"`
	DeletionMark      bool       `db:"deletion_mark"`
	Version           int        `db:"version"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func toRow(rec *document.Record) (*documentRow, error) {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	discount, err := json.Marshal(rec.Discount)
	if err != nil {
		return nil, fmt.Errorf("marshal discount: %w", err)
	}
	totals, err := json.Marshal(rec.Totals)
	if err != nil {
		return nil, fmt.Errorf("marshal totals: %w", err)
	}

	row := &documentRow{
		ID:                rec.ID,
		OwnerID:           rec.OwnerID,
		Type:              string(rec.Type),
		Number:            rec.Number,
		CounterpartyName:  rec.CounterpartyName,
		CounterpartyEmail: rec.CounterpartyEmail,
		IssueDate:         rec.IssueDate,
		Status:            string(rec.Status),
		Items:             items,
		Discount:          discount,
		Totals:            totals,
		DeletionMark:      rec.DeletionMark,
		Version:           rec.Version,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
	if !rec.DueDate.IsZero() {
		due := rec.DueDate
		row.DueDate = &due
	}
	return row, nil
}

func (row *documentRow) toRecord() (*document.Record, error) {
	rec := &document.Record{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{
				ID:           row.ID,
				DeletionMark: row.DeletionMark,
				Version:      row.Version,
			},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		OwnerID:           row.OwnerID,
		Type:              document.Type(row.Type),
		Number:            row.Number,
		CounterpartyName:  row.CounterpartyName,
		CounterpartyEmail: row.CounterpartyEmail,
		IssueDate:         row.IssueDate,
		Status:            document.Status(row.Status),
	}
	if row.DueDate != nil {
		rec.DueDate = *row.DueDate
	}
	if err := json.Unmarshal(row.Items, &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(row.Discount, &rec.Discount); err != nil {
		return nil, fmt.Errorf("unmarshal discount: %w", err)
	}
	if err := json.Unmarshal(row.Totals, &rec.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	return rec, nil
}

// DocumentRepo implements document.Repository on PostgreSQL.
type DocumentRepo struct {
	txManager *TxManager
}

// NewDocumentRepo creates a document repository.
func NewDocumentRepo(txManager *TxManager) *DocumentRepo {
	return &DocumentRepo{txManager: txManager}
}

// Builder returns a new squirrel builder.
func (r *DocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(documentColumns...).
		From(documentsTable)
}

// Create implements document.Repository.
func (r *DocumentRepo) Create(ctx context.Context, rec *document.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	q := r.Builder().
		Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			row.ID, row.OwnerID, row.Type, row.Number,
			row.CounterpartyName, row.CounterpartyEmail,
			row.IssueDate, row.DueDate, row.Status,
			row.Items, row.Discount, row.Totals,
			row.DeletionMark, row.Version, row.CreatedAt, row.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("document number already exists").
				WithDetail("number", rec.Number)
		}
		return fmt.Errorf("insert %s: %w", documentsTable, err)
	}
	return nil
}

// GetByID implements document.Repository.
func (r *DocumentRepo) GetByID(ctx context.Context, ownerID string, docID id.ID) (*document.Record, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": docID, "owner_id": ownerID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return row.toRecord()
}

// Update implements document.Repository with optimistic locking.
func (r *DocumentRepo) Update(ctx context.Context, rec *document.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(documentsTable).
		Set("counterparty_name", row.CounterpartyName).
		Set("counterparty_email", row.CounterpartyEmail).
		Set("issue_date", row.IssueDate).
		Set("due_date", row.DueDate).
		Set("status", row.Status).
		Set("items", row.Items).
		Set("discount", row.Discount).
		Set("totals", row.Totals).
		Set("deletion_mark", row.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":       row.ID,
			"owner_id": row.OwnerID,
			"version":  row.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", documentsTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("document", rec.ID)
	}

	rec.Version++
	return nil
}

// Delete implements document.Repository (soft delete).
func (r *DocumentRepo) Delete(ctx context.Context, ownerID string, docID id.ID) error {
	q := r.Builder().
		Update(documentsTable).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID, "owner_id": ownerID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", documentsTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document", docID.String())
	}
	return nil
}

// List implements document.Repository.
func (r *DocumentRepo) List(ctx context.Context, ownerID string, filter document.ListFilter) (document.ListResult, error) {
	result := document.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().Where(squirrel.Eq{"owner_id": ownerID})

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"type": string(filter.Type)})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"counterparty_name": pattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	result.Items = make([]*document.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, rec)
	}
	return result, nil
}

// NumberExists implements document.Repository.
// Deleted documents still hold their number; reuse would be ambiguous.
func (r *DocumentRepo) NumberExists(ctx context.Context, ownerID string, docType document.Type, number string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(documentsTable).
		Where(squirrel.Eq{
			"owner_id": ownerID,
			"type":     string(docType),
			"number":   number,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("number exists: %w", err)
	}
	return true, nil
}

// parseOrderBy validates the field against the column whitelist.
// "-" prefix means descending.
func parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(documentColumns))
	for _, col := range documentColumns {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return "issue_date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}

var _ document.Repository = (*DocumentRepo)(nil)
