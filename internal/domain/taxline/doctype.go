package taxline

// DocumentType classifies the transaction a line set represents. It decides
// which collectors run: sales documents are itemized, return documents are
// summarized as refund lines.
type DocumentType uint8

const (
	// DocumentTypeUnknown is the zero value and is never valid for a build.
	DocumentTypeUnknown DocumentType = iota
	// SalesOrder itemizes the order: one line per line item, then one line
	// per shipment.
	SalesOrder
	// ReturnOrder summarizes a return: one negated line per refund.
	ReturnOrder
)

// String returns the wire name of the document type.
func (t DocumentType) String() string {
	switch t {
	case SalesOrder:
		return "SalesOrder"
	case ReturnOrder:
		return "ReturnOrder"
	default:
		return "Unknown"
	}
}

// ParseDocumentType maps a wire string onto the closed enumeration.
// Unrecognized values return an InvalidDocumentTypeError.
func ParseDocumentType(s string) (DocumentType, error) {
	switch s {
	case "SalesOrder":
		return SalesOrder, nil
	case "ReturnOrder":
		return ReturnOrder, nil
	default:
		return DocumentTypeUnknown, &InvalidDocumentTypeError{Value: s}
	}
}
