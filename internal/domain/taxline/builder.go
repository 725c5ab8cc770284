package taxline

import (
	"github.com/xenking/taxline-service/internal/domain/order"
)

// Builder assembles LineSets from order data. It holds only configuration,
// never request state, so one Builder is safe for concurrent builds.
type Builder struct {
	// defaultShippingTaxCode is applied to shipment lines whose selected
	// rate carries no tax category. This is configured policy, typically
	// the tax code wired onto the store's shipping methods.
	defaultShippingTaxCode string
}

// NewBuilder creates a Builder with the given default shipping tax code.
// An empty code means shipment lines without a rate tax category are
// submitted without a tax code.
func NewBuilder(defaultShippingTaxCode string) *Builder {
	return &Builder{defaultShippingTaxCode: defaultShippingTaxCode}
}

// Build produces the full ordered line set for one document.
//
// For SalesOrder documents the item lines come first, in the order's native
// item order, followed by one line per shipment; any supplied refunds are
// ignored. For ReturnOrder documents only refund lines are produced, one
// per refund in input order, and at least one refund is required.
//
// Build is all-or-nothing: on any collector error no LineSet is returned.
// Inputs are never mutated.
func (b *Builder) Build(o *order.Order, docType DocumentType, refunds ...order.Refund) (*LineSet, error) {
	set := &LineSet{
		OrderID:      o.ID,
		DocumentType: docType,
	}

	switch docType {
	case SalesOrder:
		items, err := b.ItemLines(o.Items)
		if err != nil {
			return nil, err
		}
		shipments, err := b.ShipmentLines(o.Shipments)
		if err != nil {
			return nil, err
		}
		set.Lines = make([]Line, 0, len(items)+len(shipments))
		set.Lines = append(set.Lines, items...)
		set.Lines = append(set.Lines, shipments...)

	case ReturnOrder:
		if len(refunds) == 0 {
			return nil, &MissingRefundContextError{OrderID: o.ID}
		}
		set.Lines = make([]Line, 0, len(refunds))
		for _, r := range refunds {
			lines, err := b.RefundLines(r)
			if err != nil {
				return nil, err
			}
			set.Lines = append(set.Lines, lines...)
		}

	default:
		return nil, &InvalidDocumentTypeError{Value: docType.String()}
	}

	return set, nil
}
