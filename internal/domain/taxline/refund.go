package taxline

import (
	"github.com/xenking/taxline-service/internal/domain/order"
)

// RefundLines converts one refund into a single line with the amount
// negated to represent a reversal. The source is the originating payment.
// Refund lines carry no tax code: they reverse a monetary total, and any
// tax categorization is applied to the whole document downstream.
// The collector is stateless; build multi-refund documents by calling it
// once per refund and concatenating.
func (b *Builder) RefundLines(r order.Refund) ([]Line, error) {
	if !r.Amount.IsPositive() {
		return nil, &InvalidRefundAmountError{RefundID: r.ID, Amount: r.Amount}
	}

	return []Line{{
		Kind:        KindRefund,
		SourceID:    r.PaymentID,
		Amount:      r.Amount.Neg(),
		Quantity:    1,
		Description: r.Reason,
	}}, nil
}
