// Package model defines request/response payloads and the error taxonomy
// shared by the proxy's handlers and the Sellercloud client.
package model

import "encoding/json"

// TransferRequest is the caller-facing body of POST /transfer.
// Optional pointer/slice fields left unset are omitted from the upstream payload.
type TransferRequest struct {
	SourceSKU       string   `json:"sourceSku" validate:"required"`
	DestinationSKU  string   `json:"destinationSku" validate:"required"`
	Quantity        int      `json:"quantity" validate:"required,min=1"`
	FromWarehouseID int      `json:"fromWarehouseId" validate:"required"`
	ToWarehouseID   *int     `json:"toWarehouseId,omitempty"`
	FromBinID       *int     `json:"fromBinId,omitempty"`
	ToBinID         *int     `json:"toBinId,omitempty"`
	TransferReason  string   `json:"transferReason,omitempty"`
	SerialNumbers   []string `json:"serialNumbers,omitempty"`
}

// Validate checks required fields.
func (r *TransferRequest) Validate() error {
	return validateStruct(r)
}

// SKUSearchQuery holds the query parameters of GET /api/skus.
// At least one of ProductGroup or Keyword is required.
type SKUSearchQuery struct {
	ProductGroup           string `json:"productGroup,omitempty"`
	ProductGroupFilterType string `json:"productGroupFilterType,omitempty"`
	Keyword                string `json:"keyword,omitempty" validate:"required_without=ProductGroup"`
}

// Validate checks that the search is narrowed by group or keyword.
func (q *SKUSearchQuery) Validate() error {
	return validateStruct(q)
}

// ProductInfo is the reshaped catalog record returned by GET /product-info.
// Attribute fields come from the item's custom columns.
type ProductInfo struct {
	SKU             string `json:"-"`
	Title           string `json:"title"`
	UPC             string `json:"upc"`
	ManufacturerSKU string `json:"manufacturerSku"`
	Capacity        string `json:"capacity"`
	Grade           string `json:"grade"`
	Color           string `json:"color"`
	Colors          string `json:"colors"`
	UnlockedSKU     string `json:"unlockedSku"`
	LockedSKU       string `json:"lockedSku"`
}

// PurchaseOrderLine is one ordered line of a purchase order.
type PurchaseOrderLine struct {
	ID              int64  `json:"id"`
	SKU             string `json:"sku"`
	QuantityOrdered int    `json:"quantityOrdered"`
}

// PurchaseOrderLines is the response of both purchase-order read routes.
type PurchaseOrderLines struct {
	Lines []PurchaseOrderLine `json:"lines"`
}

// ReceiveRequest is the body of POST /api/po/receive.
type ReceiveRequest struct {
	POID  int           `json:"poId" validate:"required"`
	Lines []ReceiveLine `json:"lines" validate:"required,min=1,dive"`
}

// Validate checks the purchase order id and every line.
func (r *ReceiveRequest) Validate() error {
	return validateStruct(r)
}

// ReceiveLine is a single line being received against a purchase order.
type ReceiveLine struct {
	ID            int64    `json:"id" validate:"required"`
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	WarehouseID   *int     `json:"warehouseId,omitempty"`
	BinID         *int     `json:"binId,omitempty"`
	SerialNumbers []string `json:"serialNumbers,omitempty"`
}

// RawResponse is an upstream response relayed to the caller unmodified.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// TransferResult carries the upstream transfer response body.
type TransferResult struct {
	Data json.RawMessage
}
