package taxline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/taxline-service/internal/domain/order"
)

// --- Helpers ---

var clothingCategory = &order.TaxCategory{ID: "tc-1", Name: "Clothing", TaxCode: "PC040100"}

var shippingCategory = &order.TaxCategory{ID: "tc-2", Name: "Shipping", TaxCode: "FR000000"}

func newTestItem(id, total string, qty int) order.LineItem {
	return order.LineItem{
		ID:          id,
		SKU:         "SKU-" + id,
		Description: "Item " + id,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(total),
		Total:       decimal.RequireFromString(total),
		TaxCategory: clothingCategory,
	}
}

func newTestShipment(id, cost string) order.Shipment {
	return order.Shipment{
		ID: id,
		SelectedRate: &order.ShippingRate{
			ID:          "rate-" + id,
			Label:       "Ground",
			Cost:        decimal.RequireFromString(cost),
			Selected:    true,
			TaxCategory: shippingCategory,
		},
	}
}

func newTestOrder(items []order.LineItem, shipments []order.Shipment) *order.Order {
	return &order.Order{
		ID:        "ord-1",
		Number:    "R123456789",
		Currency:  "USD",
		Items:     items,
		Shipments: shipments,
	}
}

func newTestRefund(id, amount string) order.Refund {
	return order.Refund{
		ID:        id,
		OrderID:   "ord-1",
		PaymentID: "pay-" + id,
		Amount:    decimal.RequireFromString(amount),
		Reason:    "Return",
	}
}

// --- Tests ---

func TestBuild_SalesOrder(t *testing.T) {
	o := newTestOrder(
		[]order.LineItem{
			newTestItem("li-1", "10.00", 1),
			newTestItem("li-2", "20.00", 2),
		},
		[]order.Shipment{newTestShipment("sh-1", "5.00")},
	)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)

	assert.Equal(t, "ord-1", set.OrderID)
	assert.Equal(t, SalesOrder, set.DocumentType)
	require.Len(t, set.Lines, 3)

	assert.Equal(t, KindItem, set.Lines[0].Kind)
	assert.Equal(t, "li-1", set.Lines[0].SourceID)
	assert.True(t, decimal.RequireFromString("10.00").Equal(set.Lines[0].Amount))
	assert.Equal(t, 1, set.Lines[0].Quantity)
	assert.Equal(t, "PC040100", set.Lines[0].TaxCode)

	assert.Equal(t, KindItem, set.Lines[1].Kind)
	assert.Equal(t, "li-2", set.Lines[1].SourceID)
	assert.True(t, decimal.RequireFromString("20.00").Equal(set.Lines[1].Amount))
	assert.Equal(t, 2, set.Lines[1].Quantity)

	assert.Equal(t, KindShipment, set.Lines[2].Kind)
	assert.Equal(t, "sh-1", set.Lines[2].SourceID)
	assert.True(t, decimal.RequireFromString("5.00").Equal(set.Lines[2].Amount))
	assert.Equal(t, 1, set.Lines[2].Quantity)
	assert.Equal(t, "FR000000", set.Lines[2].TaxCode)
}

func TestBuild_ItemLinesPrecedeShipmentLines(t *testing.T) {
	o := newTestOrder(
		[]order.LineItem{
			newTestItem("li-1", "1.00", 1),
			newTestItem("li-2", "2.00", 1),
			newTestItem("li-3", "3.00", 1),
		},
		[]order.Shipment{
			newTestShipment("sh-1", "4.00"),
			newTestShipment("sh-2", "5.00"),
		},
	)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	require.Len(t, set.Lines, 5)

	for i, want := range []Kind{KindItem, KindItem, KindItem, KindShipment, KindShipment} {
		assert.Equal(t, want, set.Lines[i].Kind, "line %d", i)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	o := newTestOrder(
		[]order.LineItem{
			newTestItem("li-1", "10.00", 1),
			newTestItem("li-2", "20.00", 2),
		},
		[]order.Shipment{newTestShipment("sh-1", "5.00")},
	)
	b := NewBuilder("FR000000")

	first, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	second, err := b.Build(o, SalesOrder)
	require.NoError(t, err)

	require.Len(t, second.Lines, len(first.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i], second.Lines[i], "line %d", i)
	}
}

func TestBuild_NoItems_OneShipment(t *testing.T) {
	o := newTestOrder(nil, []order.Shipment{newTestShipment("sh-1", "5.00")})
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	require.Len(t, set.Lines, 1)
	assert.Equal(t, KindShipment, set.Lines[0].Kind)
}

func TestBuild_EmptyOrder(t *testing.T) {
	o := newTestOrder(nil, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestBuild_ZeroQuantityItemStillEmitsLine(t *testing.T) {
	o := newTestOrder([]order.LineItem{newTestItem("li-1", "0.00", 0)}, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	require.Len(t, set.Lines, 1)
	assert.Equal(t, 0, set.Lines[0].Quantity)
	assert.True(t, set.Lines[0].Amount.IsZero())
}

func TestBuild_ItemWithoutTaxCategory(t *testing.T) {
	item := newTestItem("li-1", "10.00", 1)
	item.TaxCategory = nil
	o := newTestOrder([]order.LineItem{item}, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	require.Len(t, set.Lines, 1)
	assert.Empty(t, set.Lines[0].TaxCode)
}

func TestBuild_IncompleteLineItem(t *testing.T) {
	item := newTestItem("", "10.00", 1)
	o := newTestOrder([]order.LineItem{item}, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.Nil(t, set)

	var incErr *IncompleteLineItemError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, "missing id", incErr.Reason)
}

func TestBuild_NoSelectedRate(t *testing.T) {
	o := newTestOrder(
		[]order.LineItem{newTestItem("li-1", "10.00", 1)},
		[]order.Shipment{{ID: "sh-1"}},
	)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.Nil(t, set, "no partial line set on error")

	var rateErr *NoSelectedRateError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "sh-1", rateErr.ShipmentID)
}

func TestBuild_ShipmentRateWithoutCategoryUsesDefault(t *testing.T) {
	sh := newTestShipment("sh-1", "5.00")
	sh.SelectedRate.TaxCategory = nil
	o := newTestOrder(nil, []order.Shipment{sh})
	b := NewBuilder("FR000000")

	set, err := b.Build(o, SalesOrder)
	require.NoError(t, err)
	require.Len(t, set.Lines, 1)
	assert.Equal(t, "FR000000", set.Lines[0].TaxCode)
}

func TestBuild_ReturnOrder(t *testing.T) {
	o := newTestOrder([]order.LineItem{newTestItem("li-1", "10.00", 1)}, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, ReturnOrder, newTestRefund("ref-1", "10.00"))
	require.NoError(t, err)

	assert.Equal(t, ReturnOrder, set.DocumentType)
	require.Len(t, set.Lines, 1)
	line := set.Lines[0]
	assert.Equal(t, KindRefund, line.Kind)
	assert.Equal(t, "pay-ref-1", line.SourceID)
	assert.True(t, decimal.RequireFromString("-10.00").Equal(line.Amount))
	assert.Equal(t, 1, line.Quantity)
	assert.Empty(t, line.TaxCode)
}

func TestBuild_ReturnOrderIgnoresItemsAndShipments(t *testing.T) {
	o := newTestOrder(
		[]order.LineItem{newTestItem("li-1", "10.00", 1)},
		[]order.Shipment{{ID: "sh-1"}}, // would fail the shipment collector
	)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, ReturnOrder, newTestRefund("ref-1", "10.00"))
	require.NoError(t, err)
	require.Len(t, set.Lines, 1)
	assert.Equal(t, KindRefund, set.Lines[0].Kind)
}

func TestBuild_MultipleRefunds(t *testing.T) {
	o := newTestOrder(nil, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, ReturnOrder,
		newTestRefund("ref-1", "10.00"),
		newTestRefund("ref-2", "2.50"),
	)
	require.NoError(t, err)
	require.Len(t, set.Lines, 2)
	assert.Equal(t, "pay-ref-1", set.Lines[0].SourceID)
	assert.Equal(t, "pay-ref-2", set.Lines[1].SourceID)
	assert.True(t, decimal.RequireFromString("-2.50").Equal(set.Lines[1].Amount))
}

func TestBuild_ReturnOrder_MissingRefund(t *testing.T) {
	o := newTestOrder([]order.LineItem{newTestItem("li-1", "10.00", 1)}, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, ReturnOrder)
	require.Nil(t, set)

	var missingErr *MissingRefundContextError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "ord-1", missingErr.OrderID)
}

func TestBuild_InvalidRefundAmount(t *testing.T) {
	o := newTestOrder(nil, nil)
	b := NewBuilder("FR000000")

	for _, amount := range []string{"0", "-5.00"} {
		set, err := b.Build(o, ReturnOrder, newTestRefund("ref-1", amount))
		require.Nil(t, set)

		var amtErr *InvalidRefundAmountError
		require.ErrorAs(t, err, &amtErr, "amount %s", amount)
		assert.Equal(t, "ref-1", amtErr.RefundID)
	}
}

func TestBuild_UnknownDocumentType(t *testing.T) {
	o := newTestOrder(nil, nil)
	b := NewBuilder("FR000000")

	set, err := b.Build(o, DocumentTypeUnknown)
	require.Nil(t, set)

	var dtErr *InvalidDocumentTypeError
	require.ErrorAs(t, err, &dtErr)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	items := []order.LineItem{newTestItem("li-1", "10.00", 1)}
	shipments := []order.Shipment{newTestShipment("sh-1", "5.00")}
	o := newTestOrder(items, shipments)
	b := NewBuilder("FR000000")

	_, err := b.Build(o, SalesOrder)
	require.NoError(t, err)

	assert.Equal(t, "li-1", o.Items[0].ID)
	assert.True(t, decimal.RequireFromString("10.00").Equal(o.Items[0].Total))
	assert.True(t, o.Shipments[0].SelectedRate.Selected)
}
