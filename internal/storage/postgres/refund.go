package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/taxline-service/internal/domain/order"
)

const listRefundsSQL = `SELECT id, order_id, payment_id, amount, reason, created_at
	FROM refunds WHERE order_id = $1
	ORDER BY created_at, id`

var _ order.RefundRepository = (*RefundRepository)(nil)

// RefundRepository implements order.RefundRepository backed by PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository returns a RefundRepository that uses the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// ListByOrder returns the refunds recorded against an order, oldest first.
// The secondary id sort keeps the order stable when timestamps collide.
func (r *RefundRepository) ListByOrder(ctx context.Context, orderID string) ([]order.Refund, error) {
	rows, err := r.pool.Query(ctx, listRefundsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing refunds for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var refunds []order.Refund
	for rows.Next() {
		var ref order.Refund
		err := rows.Scan(&ref.ID, &ref.OrderID, &ref.PaymentID, &ref.Amount, &ref.Reason, &ref.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning refund: %w", err)
		}
		refunds = append(refunds, ref)
	}
	return refunds, rows.Err()
}
