package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// TaxCategory classifies an entity for tax purposes. The TaxCode is the
// external classification tag consumed by the tax-determination service;
// it is never computed here.
type TaxCategory struct {
	ID      string
	Name    string
	TaxCode string
}

// LineItem is one purchased product line on an order. Total is the
// quantity-extended amount, not the unit price.
type LineItem struct {
	ID          string
	SKU         string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	TaxCategory *TaxCategory
}

// ShippingRate is one shipping option quoted for a shipment. Only the
// selected rate of a shipment is tax-relevant.
type ShippingRate struct {
	ID          string
	Label       string
	Cost        decimal.Decimal
	Selected    bool
	TaxCategory *TaxCategory
}

// Shipment is one fulfillment group of an order. SelectedRate is nil when
// no rate has been chosen yet.
type Shipment struct {
	ID           string
	SelectedRate *ShippingRate
}

// Order is the read-only aggregate this service builds tax lines from.
// Items preserve the order's native item order.
type Order struct {
	ID        string
	Number    string
	Currency  string
	Items     []LineItem
	Shipments []Shipment
	CreatedAt time.Time
}

// Refund represents a reversed payment amount on an order. Amount is the
// positive amount that was refunded; sign negation happens at line building.
type Refund struct {
	ID        string
	OrderID   string
	PaymentID string
	Amount    decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

// Repository loads order aggregates from the backing store.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}

// RefundRepository loads refunds recorded against an order, oldest first.
type RefundRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]Refund, error)
}
