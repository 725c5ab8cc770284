package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/taxline-service/internal/domain/order"
)

const getOrderSQL = `SELECT id, number, currency, created_at
	FROM orders WHERE id = $1`

const listLineItemsSQL = `SELECT
		li.id, li.sku, li.description, li.quantity, li.unit_price, li.total,
		tc.id, tc.name, tc.tax_code
	FROM line_items li
	LEFT JOIN tax_categories tc ON tc.id = li.tax_category_id
	WHERE li.order_id = $1
	ORDER BY li.position`

const listShipmentsSQL = `SELECT
		s.id,
		sr.id, sr.label, sr.cost,
		tc.id, tc.name, tc.tax_code
	FROM shipments s
	LEFT JOIN shipping_rates sr ON sr.shipment_id = s.id AND sr.selected
	LEFT JOIN tax_categories tc ON tc.id = sr.tax_category_id
	WHERE s.order_id = $1
	ORDER BY s.id`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID loads the full order aggregate: the order row plus its line items
// (in native item order) and shipments with their selected rates. Items and
// shipments are fetched concurrently once the order row is confirmed.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o := &order.Order{}
	err := r.pool.QueryRow(ctx, getOrderSQL, id).
		Scan(&o.ID, &o.Number, &o.Currency, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := r.listLineItems(gctx, id)
		if err != nil {
			return err
		}
		o.Items = items
		return nil
	})
	g.Go(func() error {
		shipments, err := r.listShipments(gctx, id)
		if err != nil {
			return err
		}
		o.Shipments = shipments
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *OrderRepository) listLineItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listLineItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing line items for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var items []order.LineItem
	for rows.Next() {
		var (
			item   order.LineItem
			tcID   *string
			tcName *string
			tcCode *string
		)
		err := rows.Scan(
			&item.ID, &item.SKU, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Total,
			&tcID, &tcName, &tcCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}
		if tcID != nil {
			item.TaxCategory = &order.TaxCategory{ID: *tcID, Name: *tcName, TaxCode: *tcCode}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) listShipments(ctx context.Context, orderID string) ([]order.Shipment, error) {
	rows, err := r.pool.Query(ctx, listShipmentsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing shipments for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var shipments []order.Shipment
	for rows.Next() {
		var (
			s      order.Shipment
			rateID *string
			label  *string
			cost   *decimal.Decimal
			tcID   *string
			tcName *string
			tcCode *string
		)
		err := rows.Scan(
			&s.ID,
			&rateID, &label, &cost,
			&tcID, &tcName, &tcCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning shipment: %w", err)
		}
		if rateID != nil {
			rate := &order.ShippingRate{
				ID:       *rateID,
				Label:    *label,
				Cost:     *cost,
				Selected: true,
			}
			if tcID != nil {
				rate.TaxCategory = &order.TaxCategory{ID: *tcID, Name: *tcName, TaxCode: *tcCode}
			}
			s.SelectedRate = rate
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}
