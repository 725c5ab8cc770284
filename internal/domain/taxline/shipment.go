package taxline

import (
	"github.com/xenking/taxline-service/internal/domain/order"
)

// ShipmentLines converts each shipment into exactly one line priced at its
// selected rate's cost. Candidate rates beyond the selected one are never
// read. The tax code comes from the selected rate's tax category, falling
// back to the builder's configured default shipping tax code.
func (b *Builder) ShipmentLines(shipments []order.Shipment) ([]Line, error) {
	lines := make([]Line, 0, len(shipments))
	for _, s := range shipments {
		rate := s.SelectedRate
		if rate == nil {
			return nil, &NoSelectedRateError{ShipmentID: s.ID}
		}

		taxCode := b.defaultShippingTaxCode
		if rate.TaxCategory != nil {
			taxCode = rate.TaxCategory.TaxCode
		}

		lines = append(lines, Line{
			Kind:        KindShipment,
			SourceID:    s.ID,
			Amount:      rate.Cost,
			Quantity:    1,
			TaxCode:     taxCode,
			Description: rate.Label,
		})
	}
	return lines, nil
}
