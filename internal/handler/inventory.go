package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"sellercloud-proxy/internal/model"
)

type transferResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type skuSearchResponse struct {
	Success bool              `json:"success"`
	Items   []json.RawMessage `json:"items"`
}

// productInfoResponse flattens the product attributes next to success/found.
// A nil ProductInfo leaves only those two keys.
type productInfoResponse struct {
	Success bool `json:"success"`
	Found   bool `json:"found"`
	*model.ProductInfo
}

// handleTransfer moves stock between SKUs and/or warehouses.
// POST /transfer
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "transferring inventory",
		slog.String("source_sku", req.SourceSKU),
		slog.String("destination_sku", req.DestinationSKU),
		slog.Int("quantity", req.Quantity),
		slog.Int("from_warehouse_id", req.FromWarehouseID),
	)

	result, err := h.adapter.Transfer(ctx, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, transferResponse{Success: true, Data: result.Data})
}

// handleSearchSKUs lists catalog items by product group and/or keyword.
// GET /api/skus?productGroup=&productGroupFilterType=&keyword=
func (h *Handler) handleSearchSKUs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := model.SKUSearchQuery{
		ProductGroup:           q.Get("productGroup"),
		ProductGroupFilterType: q.Get("productGroupFilterType"),
		Keyword:                q.Get("keyword"),
	}
	if err := query.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "searching skus",
		slog.String("product_group", query.ProductGroup),
		slog.String("keyword", query.Keyword),
	)

	items, err := h.adapter.SearchSKUs(ctx, &query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []json.RawMessage{}
	}

	h.writeJSON(w, http.StatusOK, skuSearchResponse{Success: true, Items: items})
}

// handleProductInfo looks up one catalog record by SKU.
// GET /product-info?sku=
func (h *Handler) handleProductInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.URL.Query().Get("sku")

	if sku == "" {
		h.writeError(w, model.NewValidationError("sku", "is required"))
		return
	}

	h.logger.InfoContext(ctx, "looking up product", slog.String("sku", sku))

	product, err := h.adapter.LookupProduct(ctx, sku)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, productInfoResponse{
		Success:     true,
		Found:       product != nil,
		ProductInfo: product,
	})
}
