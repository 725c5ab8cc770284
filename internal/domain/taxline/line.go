package taxline

import (
	"github.com/shopspring/decimal"
)

// Kind distinguishes what a line represents.
type Kind string

const (
	// KindItem is a purchased product line.
	KindItem Kind = "item"
	// KindShipment is the selected shipping rate of one shipment.
	KindShipment Kind = "shipment"
	// KindRefund is a reversed payment amount; its Amount is negative.
	KindRefund Kind = "refund"
)

// Line is one taxable or tax-relevant entry submitted to the external
// tax-determination service. SourceID identifies the originating entity
// (line item, shipment, or payment) so a later engine response can be
// reconciled back to it. TaxCode is empty when the originating entity
// carries no tax category.
type Line struct {
	Kind        Kind
	SourceID    string
	Amount      decimal.Decimal
	Quantity    int
	TaxCode     string
	Description string
}

// LineSet is the complete ordered result of one build: the originating
// order reference, the document type that was built, and the line sequence.
// A LineSet is constructed fresh per build and must not be mutated after it
// is returned.
type LineSet struct {
	OrderID      string
	DocumentType DocumentType
	Lines        []Line
}

// Empty reports whether the build produced no lines. An empty set is valid
// (an order with neither items nor shipments) but callers will usually want
// to flag it rather than submit it.
func (s *LineSet) Empty() bool {
	return len(s.Lines) == 0
}
