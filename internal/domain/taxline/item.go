package taxline

import (
	"github.com/xenking/taxline-service/internal/domain/order"
)

// ItemLines converts each line item into one item line, preserving input
// order. The line amount is the item's quantity-extended total. Items with
// zero quantity or zero total still produce a line; materiality is the tax
// engine's call, not ours.
func (b *Builder) ItemLines(items []order.LineItem) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			return nil, &IncompleteLineItemError{LineItemID: item.SKU, Reason: "missing id"}
		}
		if item.Quantity < 0 {
			return nil, &IncompleteLineItemError{LineItemID: item.ID, Reason: "negative quantity"}
		}

		line := Line{
			Kind:        KindItem,
			SourceID:    item.ID,
			Amount:      item.Total,
			Quantity:    item.Quantity,
			Description: item.Description,
		}
		if item.TaxCategory != nil {
			line.TaxCode = item.TaxCategory.TaxCode
		}
		lines = append(lines, line)
	}
	return lines, nil
}
