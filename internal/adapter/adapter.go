// Package adapter defines the interface between the HTTP surface and the
// inventory backend. Handlers and MCP tools depend only on Adapter.
package adapter

import (
	"context"
	"encoding/json"

	"sellercloud-proxy/internal/model"
)

// Adapter abstracts the inventory operations exposed by the proxy.
// The Sellercloud client is the production implementation.
//
// Errors are *model.APIError values ready for the handler to serialize.
type Adapter interface {
	// Transfer moves stock between SKUs and/or warehouses.
	Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error)

	// SearchSKUs lists catalog items by product group and/or keyword.
	// Items are returned exactly as the upstream sent them.
	SearchSKUs(ctx context.Context, q *model.SKUSearchQuery) ([]json.RawMessage, error)

	// LookupProduct returns one reshaped catalog record.
	// A nil result with a nil error means the SKU is unknown.
	LookupProduct(ctx context.Context, sku string) (*model.ProductInfo, error)

	// GetPurchaseOrder returns the ordered lines of a purchase order.
	GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrderLines, error)

	// GetPurchaseOrderItems returns the lines from the purchase order items endpoint.
	GetPurchaseOrderItems(ctx context.Context, id string) (*model.PurchaseOrderLines, error)

	// ReceivePurchaseOrder records received quantities. The upstream response
	// is relayed whatever its status.
	ReceivePurchaseOrder(ctx context.Context, req *model.ReceiveRequest) (*model.RawResponse, error)

	// SOAP relays an XML envelope to the SOAP service under action.
	SOAP(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error)
}
