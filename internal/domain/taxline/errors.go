package taxline

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidDocumentTypeError indicates a document type outside the closed
// enumeration.
type InvalidDocumentTypeError struct {
	Value string
}

func (e *InvalidDocumentTypeError) Error() string {
	return fmt.Sprintf("invalid document type %q", e.Value)
}

// MissingRefundContextError indicates a ReturnOrder build without a refund.
type MissingRefundContextError struct {
	OrderID string
}

func (e *MissingRefundContextError) Error() string {
	return fmt.Sprintf("return order %s requires at least one refund", e.OrderID)
}

// IncompleteLineItemError indicates a line item missing a required field.
type IncompleteLineItemError struct {
	LineItemID string
	Reason     string
}

func (e *IncompleteLineItemError) Error() string {
	return fmt.Sprintf("incomplete line item %q: %s", e.LineItemID, e.Reason)
}

// NoSelectedRateError indicates a shipment without a selected shipping rate.
type NoSelectedRateError struct {
	ShipmentID string
}

func (e *NoSelectedRateError) Error() string {
	return fmt.Sprintf("shipment %s has no selected shipping rate", e.ShipmentID)
}

// InvalidRefundAmountError indicates a refund whose amount is not a positive
// reversed amount.
type InvalidRefundAmountError struct {
	RefundID string
	Amount   decimal.Decimal
}

func (e *InvalidRefundAmountError) Error() string {
	return fmt.Sprintf("refund %s has non-positive amount %s", e.RefundID, e.Amount)
}
