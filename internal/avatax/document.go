package avatax

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Document records one transaction submitted to the tax engine, keyed by
// the engine's external identifier so later adjust/void calls can reference
// it.
type Document struct {
	ID           string
	OrderID      string
	DocumentType string
	ExternalID   string
	TotalTax     decimal.Decimal
	CreatedAt    time.Time
}

// DocumentRepository persists submitted transaction references.
type DocumentRepository interface {
	Save(ctx context.Context, doc *Document) error
	ListByOrder(ctx context.Context, orderID string) ([]Document, error)
}
