package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/taxline-service/internal/avatax"
)

const saveDocumentSQL = `INSERT INTO tax_documents (id, order_id, document_type, external_id, total_tax)
	VALUES ($1, $2, $3, $4, $5)`

const listDocumentsSQL = `SELECT id, order_id, document_type, external_id, total_tax, created_at
	FROM tax_documents WHERE order_id = $1
	ORDER BY created_at, id`

var _ avatax.DocumentRepository = (*DocumentRepository)(nil)

// DocumentRepository implements avatax.DocumentRepository backed by PostgreSQL.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository returns a DocumentRepository that uses the given pool.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Save persists a submitted transaction reference.
func (r *DocumentRepository) Save(ctx context.Context, doc *avatax.Document) error {
	_, err := r.pool.Exec(ctx, saveDocumentSQL,
		doc.ID, doc.OrderID, doc.DocumentType, doc.ExternalID, doc.TotalTax,
	)
	if err != nil {
		return fmt.Errorf("saving tax document %q: %w", doc.ID, err)
	}
	return nil
}

// ListByOrder returns the documents submitted for an order, oldest first.
func (r *DocumentRepository) ListByOrder(ctx context.Context, orderID string) ([]avatax.Document, error) {
	rows, err := r.pool.Query(ctx, listDocumentsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing tax documents for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var docs []avatax.Document
	for rows.Next() {
		var d avatax.Document
		err := rows.Scan(&d.ID, &d.OrderID, &d.DocumentType, &d.ExternalID, &d.TotalTax, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning tax document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
