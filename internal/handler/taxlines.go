package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/taxline-service/internal/avatax"
	"github.com/xenking/taxline-service/internal/domain/order"
	"github.com/xenking/taxline-service/internal/domain/taxline"
)

// buildRequest is the body of the build and submit endpoints.
type buildRequest struct {
	DocumentType string `json:"documentType"`
}

// buildTaxLines builds the line set for an order and returns it without
// submitting anything. This is the preview/reconciliation endpoint.
func (h *Handler) buildTaxLines(w http.ResponseWriter, r *http.Request) {
	set, _, ok := h.buildForRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, encodeLineSet(set))
}

// submitTaxDocument builds the line set, submits it to the tax engine, and
// persists the returned document reference.
func (h *Handler) submitTaxDocument(w http.ResponseWriter, r *http.Request) {
	set, o, ok := h.buildForRequest(w, r)
	if !ok {
		return
	}

	tx, err := h.tax.CreateTransaction(r.Context(), o, set)
	if err != nil {
		if errors.Is(err, avatax.ErrNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "tax service not configured")
			return
		}
		respondInternal(w, r, err)
		return
	}

	doc := &avatax.Document{
		ID:           uuid.New().String(),
		OrderID:      set.OrderID,
		DocumentType: set.DocumentType.String(),
		ExternalID:   tx.ExternalID,
		TotalTax:     tx.TotalTax,
		CreatedAt:    time.Now(),
	}
	if err := h.docs.Save(r.Context(), doc); err != nil {
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, encodeTransaction(doc, tx))
}

// listTaxDocuments returns the documents already submitted for an order.
func (h *Handler) listTaxDocuments(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	docs, err := h.docs.ListByOrder(r.Context(), o.ID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, encodeDocuments(docs))
}

// buildForRequest decodes the request, loads the order (and refunds for
// returns), and runs the builder. On failure it writes the error response
// and returns ok=false.
func (h *Handler) buildForRequest(w http.ResponseWriter, r *http.Request) (*taxline.LineSet, *order.Order, bool) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return nil, nil, false
	}

	docType, err := taxline.ParseDocumentType(req.DocumentType)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return nil, nil, false
		}
		respondInternal(w, r, err)
		return nil, nil, false
	}

	refunds, err := h.refundsFor(r.Context(), o, docType)
	if err != nil {
		respondInternal(w, r, err)
		return nil, nil, false
	}

	set, err := h.builder.Build(o, docType, refunds...)
	if err != nil {
		status, ok := buildErrorStatus(err)
		if !ok {
			respondInternal(w, r, err)
			return nil, nil, false
		}
		respondError(w, status, err.Error())
		return nil, nil, false
	}

	return set, o, true
}

// refundsFor loads the order's refunds for return documents. Sales
// documents never need them.
func (h *Handler) refundsFor(ctx context.Context, o *order.Order, docType taxline.DocumentType) ([]order.Refund, error) {
	if docType != taxline.ReturnOrder {
		return nil, nil
	}
	refunds, err := h.refunds.ListByOrder(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list refunds")
	}
	return refunds, nil
}

// buildErrorStatus maps builder errors onto HTTP statuses. All builder
// failures are input-shape problems, so they map to 4xx.
func buildErrorStatus(err error) (int, bool) {
	var (
		docTypeErr  *taxline.InvalidDocumentTypeError
		noRefundErr *taxline.MissingRefundContextError
		itemErr     *taxline.IncompleteLineItemError
		rateErr     *taxline.NoSelectedRateError
		amountErr   *taxline.InvalidRefundAmountError
	)
	switch {
	case errors.As(err, &docTypeErr):
		return http.StatusBadRequest, true
	case errors.As(err, &noRefundErr),
		errors.As(err, &itemErr),
		errors.As(err, &rateErr),
		errors.As(err, &amountErr):
		return http.StatusUnprocessableEntity, true
	default:
		return 0, false
	}
}

// encodeLineSet writes the line-set response. Amounts are emitted as JSON
// numbers with the decimal's exact representation.
func encodeLineSet(set *taxline.LineSet) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(set.OrderID)
	e.FieldStart("documentType")
	e.Str(set.DocumentType.String())
	e.FieldStart("lines")
	e.ArrStart()
	for _, line := range set.Lines {
		e.ObjStart()
		e.FieldStart("kind")
		e.Str(string(line.Kind))
		e.FieldStart("sourceId")
		e.Str(line.SourceID)
		e.FieldStart("amount")
		e.Num(jx.Num(line.Amount.String()))
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		if line.TaxCode != "" {
			e.FieldStart("taxCode")
			e.Str(line.TaxCode)
		}
		if line.Description != "" {
			e.FieldStart("description")
			e.Str(line.Description)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

func encodeTransaction(doc *avatax.Document, tx *avatax.Transaction) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("documentId")
	e.Str(doc.ID)
	e.FieldStart("externalId")
	e.Str(doc.ExternalID)
	e.FieldStart("documentType")
	e.Str(doc.DocumentType)
	e.FieldStart("totalTax")
	e.Num(jx.Num(tx.TotalTax.String()))
	e.FieldStart("lines")
	e.ArrStart()
	for _, line := range tx.Lines {
		e.ObjStart()
		e.FieldStart("sourceId")
		e.Str(line.SourceID)
		e.FieldStart("tax")
		e.Num(jx.Num(line.Tax.String()))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

func encodeDocuments(docs []avatax.Document) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, d := range docs {
		e.ObjStart()
		e.FieldStart("documentId")
		e.Str(d.ID)
		e.FieldStart("externalId")
		e.Str(d.ExternalID)
		e.FieldStart("documentType")
		e.Str(d.DocumentType)
		e.FieldStart("totalTax")
		e.Num(jx.Num(d.TotalTax.String()))
		e.FieldStart("createdAt")
		e.Str(d.CreatedAt.UTC().Format(time.RFC3339))
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}
