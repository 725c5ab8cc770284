package avatax

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/taxline-service/internal/domain/taxline"
)

func newTestLineSet() *taxline.LineSet {
	return &taxline.LineSet{
		OrderID:      "ord-1",
		DocumentType: taxline.SalesOrder,
		Lines: []taxline.Line{
			{
				Kind:        taxline.KindItem,
				SourceID:    "li-1",
				Amount:      decimal.RequireFromString("10.00"),
				Quantity:    1,
				TaxCode:     "PC040100",
				Description: "Blue shirt",
			},
			{
				Kind:     taxline.KindShipment,
				SourceID: "sh-1",
				Amount:   decimal.RequireFromString("5.00"),
				Quantity: 1,
				TaxCode:  "FR000000",
			},
		},
	}
}

func TestEncodeCreateTransaction(t *testing.T) {
	set := newTestLineSet()
	date := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	body := EncodeCreateTransaction(set, "DEFAULT", "R123456789", "USD", date)

	var payload struct {
		Type         string `json:"type"`
		CompanyCode  string `json:"companyCode"`
		Code         string `json:"code"`
		CustomerCode string `json:"customerCode"`
		Date         string `json:"date"`
		CurrencyCode string `json:"currencyCode"`
		Lines        []struct {
			Number      string          `json:"number"`
			ItemCode    string          `json:"itemCode"`
			Amount      decimal.Decimal `json:"amount"`
			Quantity    int             `json:"quantity"`
			TaxCode     string          `json:"taxCode"`
			Description string          `json:"description"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "SalesOrder", payload.Type)
	assert.Equal(t, "DEFAULT", payload.CompanyCode)
	assert.Equal(t, "ord-1", payload.Code)
	assert.Equal(t, "R123456789", payload.CustomerCode)
	assert.Equal(t, "2026-08-31", payload.Date)
	assert.Equal(t, "USD", payload.CurrencyCode)

	require.Len(t, payload.Lines, 2)
	assert.Equal(t, "1", payload.Lines[0].Number)
	assert.Equal(t, "li-1", payload.Lines[0].ItemCode)
	assert.True(t, decimal.RequireFromString("10.00").Equal(payload.Lines[0].Amount))
	assert.Equal(t, 1, payload.Lines[0].Quantity)
	assert.Equal(t, "PC040100", payload.Lines[0].TaxCode)
	assert.Equal(t, "Blue shirt", payload.Lines[0].Description)

	assert.Equal(t, "2", payload.Lines[1].Number)
	assert.Equal(t, "sh-1", payload.Lines[1].ItemCode)
	assert.Empty(t, payload.Lines[1].Description)
}

func TestEncodeCreateTransaction_NegativeRefundAmount(t *testing.T) {
	set := &taxline.LineSet{
		OrderID:      "ord-1",
		DocumentType: taxline.ReturnOrder,
		Lines: []taxline.Line{{
			Kind:     taxline.KindRefund,
			SourceID: "pay-1",
			Amount:   decimal.RequireFromString("-10.00"),
			Quantity: 1,
		}},
	}

	body := EncodeCreateTransaction(set, "DEFAULT", "R1", "USD", time.Now())

	var payload struct {
		Type  string `json:"type"`
		Lines []struct {
			Amount  decimal.Decimal `json:"amount"`
			TaxCode string          `json:"taxCode"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "ReturnOrder", payload.Type)
	require.Len(t, payload.Lines, 1)
	assert.True(t, payload.Lines[0].Amount.IsNegative())
	assert.Empty(t, payload.Lines[0].TaxCode, "refund lines carry no tax code")
}

func TestSourceForLineNumber(t *testing.T) {
	set := newTestLineSet()

	id, ok := SourceForLineNumber(set, 1)
	require.True(t, ok)
	assert.Equal(t, "li-1", id)

	id, ok = SourceForLineNumber(set, 2)
	require.True(t, ok)
	assert.Equal(t, "sh-1", id)

	_, ok = SourceForLineNumber(set, 0)
	assert.False(t, ok)
	_, ok = SourceForLineNumber(set, 3)
	assert.False(t, ok)
}
