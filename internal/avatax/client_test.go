package avatax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/taxline-service/internal/domain/order"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		AccountID:   "acct",
		LicenseKey:  "key",
		CompanyCode: "DEFAULT",
	})
}

func testOrder() *order.Order {
	return &order.Order{ID: "ord-1", Number: "R123456789", Currency: "USD"}
}

func TestCreateTransaction(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/transactions/create", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 42001,
			"code": "ord-1",
			"totalTax": 1.24,
			"lines": [
				{"lineNumber": "1", "tax": 0.83},
				{"lineNumber": "2", "tax": 0.41}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	set := newTestLineSet()

	tx, err := c.CreateTransaction(context.Background(), testOrder(), set)
	require.NoError(t, err)

	assert.Equal(t, "acct", gotAuthUser)
	assert.Equal(t, "key", gotAuthPass)
	assert.Equal(t, "SalesOrder", gotBody["type"])

	assert.Equal(t, "42001", tx.ExternalID)
	assert.True(t, decimal.RequireFromString("1.24").Equal(tx.TotalTax))
	require.Len(t, tx.Lines, 2)
	assert.Equal(t, "li-1", tx.Lines[0].SourceID)
	assert.True(t, decimal.RequireFromString("0.83").Equal(tx.Lines[0].Tax))
	assert.Equal(t, "sh-1", tx.Lines[1].SourceID)
}

func TestCreateTransaction_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "InvalidAddress", "message": "The address is incomplete."}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.CreateTransaction(context.Background(), testOrder(), newTestLineSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The address is incomplete.")
	assert.Contains(t, err.Error(), "InvalidAddress")
}

func TestCreateTransaction_UnknownLineNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "totalTax": 0, "lines": [{"lineNumber": "9", "tax": 0}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.CreateTransaction(context.Background(), testOrder(), newTestLineSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown line number")
}

func TestCreateTransaction_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	require.False(t, c.Enabled())

	_, err := c.CreateTransaction(context.Background(), testOrder(), newTestLineSet())
	require.ErrorIs(t, err, ErrNotConfigured)
}
