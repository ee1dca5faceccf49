package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.AccountingDocument) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AccountingDocument, error)
	Update(ctx context.Context, doc *models.AccountingDocument) error
	// SetFile records the stored object for the document.
	SetFile(ctx context.Context, doc *models.AccountingDocument) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.DocumentFilter) ([]*models.AccountingDocument, error)
}

type documentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) DocumentRepository {
	return &documentRepo{db: db}
}

const documentColumns = `id, tenant_id, doc_type, number, counterparty, amount, doc_date, status, tender_id,
	file_key, file_name, content_type, file_size, created_at, updated_at`

func scanDocument(row pgx.Row) (*models.AccountingDocument, error) {
	d := &models.AccountingDocument{}
	err := row.Scan(&d.ID, &d.TenantID, &d.DocType, &d.Number, &d.Counterparty, &d.Amount, &d.DocDate, &d.Status, &d.TenderID,
		&d.FileKey, &d.FileName, &d.ContentType, &d.FileSize, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *documentRepo) Create(ctx context.Context, d *models.AccountingDocument) error {
	query := `
		INSERT INTO accounting_documents (id, tenant_id, doc_type, number, counterparty, amount, doc_date, status, tender_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, d.ID, d.TenantID, d.DocType, d.Number, d.Counterparty, d.Amount, d.DocDate, d.Status, d.TenderID)
	return mapError(err)
}

func (r *documentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AccountingDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM accounting_documents WHERE tenant_id = $1 AND id = $2`
	return scanDocument(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *documentRepo) Update(ctx context.Context, d *models.AccountingDocument) error {
	query := `
		UPDATE accounting_documents
		SET doc_type = $1, number = $2, counterparty = $3, amount = $4, doc_date = $5, status = $6, tender_id = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	return execOne(ctx, r.db, query, d.DocType, d.Number, d.Counterparty, d.Amount, d.DocDate, d.Status, d.TenderID, d.TenantID, d.ID)
}

func (r *documentRepo) SetFile(ctx context.Context, d *models.AccountingDocument) error {
	query := `
		UPDATE accounting_documents
		SET file_key = $1, file_name = $2, content_type = $3, file_size = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
	`
	return execOne(ctx, r.db, query, d.FileKey, d.FileName, d.ContentType, d.FileSize, d.TenantID, d.ID)
}

func (r *documentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM accounting_documents WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *documentRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.DocumentFilter) ([]*models.AccountingDocument, error) {
	w := newWhere(`SELECT `+documentColumns+` FROM accounting_documents WHERE tenant_id = $1`, tenantID)
	if filter.DocType != "" {
		w.and("doc_type = $%d", filter.DocType)
	}
	if filter.Status != "" {
		w.and("status = $%d", filter.Status)
	}
	if filter.TenderID != nil {
		w.and("tender_id = $%d", *filter.TenderID)
	}
	w.page("doc_date DESC, created_at DESC", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.AccountingDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
