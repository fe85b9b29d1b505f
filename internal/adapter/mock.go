package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sellercloud-proxy/internal/model"
)

// Mock implements Adapter for testing.
// Each method can be configured via function fields.
type Mock struct {
	TransferFunc              func(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error)
	SearchSKUsFunc            func(ctx context.Context, q *model.SKUSearchQuery) ([]json.RawMessage, error)
	LookupProductFunc         func(ctx context.Context, sku string) (*model.ProductInfo, error)
	GetPurchaseOrderFunc      func(ctx context.Context, id string) (*model.PurchaseOrderLines, error)
	GetPurchaseOrderItemsFunc func(ctx context.Context, id string) (*model.PurchaseOrderLines, error)
	ReceivePurchaseOrderFunc  func(ctx context.Context, req *model.ReceiveRequest) (*model.RawResponse, error)
	SOAPFunc                  func(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error)
}

var errNotConfigured = errors.New("mock method not configured")

// Transfer calls the configured TransferFunc or returns an error.
func (m *Mock) Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, req)
	}
	return nil, model.NewInternalError(errNotConfigured)
}

// SearchSKUs calls the configured SearchSKUsFunc or returns no items.
func (m *Mock) SearchSKUs(ctx context.Context, q *model.SKUSearchQuery) ([]json.RawMessage, error) {
	if m.SearchSKUsFunc != nil {
		return m.SearchSKUsFunc(ctx, q)
	}
	return []json.RawMessage{}, nil
}

// LookupProduct calls the configured LookupProductFunc or reports not found.
func (m *Mock) LookupProduct(ctx context.Context, sku string) (*model.ProductInfo, error) {
	if m.LookupProductFunc != nil {
		return m.LookupProductFunc(ctx, sku)
	}
	return nil, nil
}

// GetPurchaseOrder calls the configured GetPurchaseOrderFunc or returns an error.
func (m *Mock) GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
	if m.GetPurchaseOrderFunc != nil {
		return m.GetPurchaseOrderFunc(ctx, id)
	}
	return nil, model.NewUpstreamError(http.StatusNotFound, []byte(`{"Message":"purchase order not found"}`))
}

// GetPurchaseOrderItems calls the configured GetPurchaseOrderItemsFunc or returns an error.
func (m *Mock) GetPurchaseOrderItems(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
	if m.GetPurchaseOrderItemsFunc != nil {
		return m.GetPurchaseOrderItemsFunc(ctx, id)
	}
	return nil, model.NewUpstreamError(http.StatusNotFound, []byte(`{"Message":"purchase order not found"}`))
}

// ReceivePurchaseOrder calls the configured ReceivePurchaseOrderFunc or returns an error.
func (m *Mock) ReceivePurchaseOrder(ctx context.Context, req *model.ReceiveRequest) (*model.RawResponse, error) {
	if m.ReceivePurchaseOrderFunc != nil {
		return m.ReceivePurchaseOrderFunc(ctx, req)
	}
	return nil, model.NewInternalError(errNotConfigured)
}

// SOAP calls the configured SOAPFunc or returns an empty XML response.
func (m *Mock) SOAP(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error) {
	if m.SOAPFunc != nil {
		return m.SOAPFunc(ctx, action, envelope)
	}
	return &model.RawResponse{StatusCode: http.StatusOK, ContentType: "text/xml; charset=utf-8"}, nil
}

// Ensure Mock implements Adapter.
var _ Adapter = (*Mock)(nil)
