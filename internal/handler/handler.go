// Package handler exposes the line-building service over HTTP. Handlers
// decode requests, delegate to the domain builder and the tax engine
// client, and map domain errors onto HTTP status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/taxline-service/internal/avatax"
	"github.com/xenking/taxline-service/internal/domain/order"
	"github.com/xenking/taxline-service/internal/domain/taxline"
)

// Handler implements the service's HTTP API.
type Handler struct {
	orders  order.Repository
	refunds order.RefundRepository
	builder *taxline.Builder
	tax     *avatax.Client
	docs    avatax.DocumentRepository
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	orders order.Repository,
	refunds order.RefundRepository,
	builder *taxline.Builder,
	tax *avatax.Client,
	docs avatax.DocumentRepository,
) *Handler {
	return &Handler{
		orders:  orders,
		refunds: refunds,
		builder: builder,
		tax:     tax,
		docs:    docs,
	}
}

// Register mounts all API routes on the mux, wrapped with the given
// per-route middleware (API key auth).
func (h *Handler) Register(mux *http.ServeMux, authn func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/orders/{id}/tax-lines", authn(h.buildTaxLines))
	mux.HandleFunc("POST /api/orders/{id}/tax-documents", authn(h.submitTaxDocument))
	mux.HandleFunc("GET /api/orders/{id}/tax-documents", authn(h.listTaxDocuments))
}

// errorBody is the JSON error envelope shared by all endpoints.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Code: status, Message: message})
}

func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
