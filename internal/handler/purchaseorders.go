package handler

import (
	"log/slog"
	"net/http"

	"sellercloud-proxy/internal/model"
	"sellercloud-proxy/internal/sellercloud"
)

// handleGetPurchaseOrder returns the ordered lines of a purchase order.
// GET /api/po/{id}
func (h *Handler) handleGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sellercloud.ParsePurchaseOrderID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "getting purchase order", slog.String("po_id", id))

	lines, err := h.adapter.GetPurchaseOrder(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, lines)
}

// handleGetPurchaseOrderItems returns the lines from the purchase order items endpoint.
// GET /api/po/{id}/items
func (h *Handler) handleGetPurchaseOrderItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sellercloud.ParsePurchaseOrderID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "getting purchase order items", slog.String("po_id", id))

	lines, err := h.adapter.GetPurchaseOrderItems(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, lines)
}

// handleReceivePurchaseOrder records received quantities and relays the
// upstream response unchanged.
// POST /api/po/receive
func (h *Handler) handleReceivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ReceiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "receiving purchase order",
		slog.Int("po_id", req.POID),
		slog.Int("lines", len(req.Lines)),
	)

	resp, err := h.adapter.ReceivePurchaseOrder(ctx, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeRaw(w, resp, "application/json")
}
