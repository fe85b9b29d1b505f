// Package handler provides HTTP handlers for the Sellercloud proxy API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"sellercloud-proxy/internal/adapter"
	"sellercloud-proxy/internal/model"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// New creates a new Handler with the given adapter and logger.
func New(a adapter.Adapter, logger *slog.Logger) *Handler {
	return &Handler{
		adapter: a,
		logger:  logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Inventory
	mux.HandleFunc("POST /transfer", h.handleTransfer)
	mux.HandleFunc("GET /api/skus", h.handleSearchSKUs)
	mux.HandleFunc("GET /product-info", h.handleProductInfo)

	// Purchase orders
	mux.HandleFunc("GET /api/po/{id}", h.handleGetPurchaseOrder)
	mux.HandleFunc("GET /api/po/{id}/items", h.handleGetPurchaseOrderItems)
	mux.HandleFunc("POST /api/po/receive", h.handleReceivePurchaseOrder)

	// SOAP passthrough
	mux.HandleFunc("POST /authenticate", h.handleSOAPAuthenticate)
	mux.HandleFunc("POST /get-product", h.handleSOAPGetProduct)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeRaw relays an upstream response: status, content type and body unchanged.
// defaultType labels bodies the upstream sent without a content type.
func (h *Handler) writeRaw(w http.ResponseWriter, resp *model.RawResponse, defaultType string) {
	ct := resp.ContentType
	if ct == "" {
		ct = defaultType
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Error("failed to write relayed response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
//
// Upstream errors carry the upstream status, and the upstream body becomes
// the error field: embedded as JSON when it parses, otherwise as a string.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	if apiErr.StatusCode >= 500 {
		h.logger.Error("request failed",
			slog.String("code", apiErr.Code),
			slog.String("error", apiErr.Error()),
		)
	}

	resp := errorResponse{
		Success: false,
		Error:   apiErr.Message,
		Code:    apiErr.Code,
	}
	if errors.Is(apiErr, model.ErrUpstream) && len(apiErr.Body) > 0 {
		resp.Error = upstreamBody(apiErr.Body)
	}

	h.writeJSON(w, apiErr.StatusCode, resp)
}

// upstreamBody returns body as JSON when valid, otherwise as a string.
func upstreamBody(body []byte) interface{} {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
	Code    string      `json:"code,omitempty"`
}

// MaxRequestBodySize limits request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// readBody reads a non-JSON request body, bounded by MaxRequestBodySize.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, model.NewValidationError("body", "too large")
		}
		return nil, model.NewValidationError("body", "unreadable")
	}
	return body, nil
}
