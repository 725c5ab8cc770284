// Package avatax talks to the external tax-determination service. It
// serializes line sets into transaction requests and maps engine responses
// back to the originating entities. Tax math itself stays on the engine
// side; this package never computes a rate.
package avatax

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/taxline-service/internal/domain/order"
	"github.com/xenking/taxline-service/internal/domain/taxline"
)

// ErrNotConfigured is returned by Client methods when no engine endpoint
// has been configured.
var ErrNotConfigured = errors.New("tax service not configured")

// Config holds the connection settings for the tax engine.
type Config struct {
	// BaseURL of the engine API, e.g. https://sandbox-rest.avatax.com.
	// Empty disables submission.
	BaseURL string
	// AccountID and LicenseKey authenticate via HTTP basic auth.
	AccountID  string
	LicenseKey string
	// CompanyCode identifies the company profile on the engine.
	CompanyCode string
	// Timeout bounds a single CreateTransaction call.
	Timeout time.Duration
}

// Client submits transactions to the tax engine.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client for the given engine configuration.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether an engine endpoint is configured.
func (c *Client) Enabled() bool {
	return c.cfg.BaseURL != ""
}

// TransactionLine is the engine's verdict for one submitted line, joined
// back to the originating entity via SourceID.
type TransactionLine struct {
	Number   int
	SourceID string
	Tax      decimal.Decimal
}

// Transaction is the engine's response to a CreateTransaction call.
type Transaction struct {
	ExternalID string
	TotalTax   decimal.Decimal
	Lines      []TransactionLine
}

// engine response shapes; only the fields we consume.
type transactionResponse struct {
	ID       json.Number             `json:"id"`
	Code     string                  `json:"code"`
	TotalTax decimal.Decimal         `json:"totalTax"`
	Lines    []transactionLineResult `json:"lines"`
}

type transactionLineResult struct {
	LineNumber string          `json:"lineNumber"`
	Tax        decimal.Decimal `json:"tax"`
}

// errorResponse is the engine's error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateTransaction submits the line set for the given order and returns
// the engine's transaction with each result line resolved back to its
// source entity.
func (c *Client) CreateTransaction(ctx context.Context, o *order.Order, set *taxline.LineSet) (*Transaction, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	body := EncodeCreateTransaction(set, c.cfg.CompanyCode, o.Number, o.Currency, time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/v2/transactions/create", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.AccountID, c.cfg.LicenseKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call tax engine")
	}
	defer resp.Body.Close()

	zctx.From(ctx).Debug("Tax engine call",
		zap.String("order_id", set.OrderID),
		zap.String("document_type", set.DocumentType.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var engineErr errorResponse
		if err := json.Unmarshal(raw, &engineErr); err == nil && engineErr.Error.Message != "" {
			return nil, errors.Errorf("tax engine rejected transaction: %s (%s)",
				engineErr.Error.Message, engineErr.Error.Code)
		}
		return nil, errors.Errorf("tax engine returned status %d", resp.StatusCode)
	}

	var tr transactionResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	return mapTransaction(set, tr)
}

// mapTransaction joins engine result lines back to source entities by line
// number. Unknown line numbers are an engine contract violation and fail
// the whole call rather than yielding an orphan line.
func mapTransaction(set *taxline.LineSet, tr transactionResponse) (*Transaction, error) {
	out := &Transaction{
		ExternalID: tr.ID.String(),
		TotalTax:   tr.TotalTax,
		Lines:      make([]TransactionLine, 0, len(tr.Lines)),
	}
	if out.ExternalID == "" {
		out.ExternalID = tr.Code
	}

	for _, line := range tr.Lines {
		number, err := strconv.Atoi(line.LineNumber)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed line number %q", line.LineNumber)
		}
		sourceID, ok := SourceForLineNumber(set, number)
		if !ok {
			return nil, errors.Errorf("engine returned unknown line number %d", number)
		}
		out.Lines = append(out.Lines, TransactionLine{
			Number:   number,
			SourceID: sourceID,
			Tax:      line.Tax,
		})
	}
	return out, nil
}
