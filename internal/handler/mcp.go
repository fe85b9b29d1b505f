// MCP transport handler using the official MCP Go SDK.
// Exposes the REST inventory operations as MCP tools.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"sellercloud-proxy/internal/model"
	"sellercloud-proxy/internal/sellercloud"
)

// === MCP Tool Input/Output Types ===
// Inputs reuse the REST request shapes so both transports validate the same way.

// SearchSKUsInput is the input schema for the search_skus tool.
type SearchSKUsInput struct {
	ProductGroup           string `json:"productGroup,omitempty" jsonschema:"product group name"`
	ProductGroupFilterType string `json:"productGroupFilterType,omitempty" jsonschema:"how productGroup is matched"`
	Keyword                string `json:"keyword,omitempty" jsonschema:"free-text keyword; required when productGroup is empty"`
}

// SearchSKUsOutput lists catalog items as returned by the upstream.
type SearchSKUsOutput struct {
	Items []map[string]interface{} `json:"items"`
}

// ProductInfoInput is the input schema for the get_product_info tool.
type ProductInfoInput struct {
	SKU string `json:"sku" jsonschema:"product SKU"`
}

// ProductInfoOutput reports whether the SKU exists and its attributes.
type ProductInfoOutput struct {
	Found   bool               `json:"found"`
	Product *model.ProductInfo `json:"product,omitempty"`
}

// PurchaseOrderInput is the input schema for the purchase order read tools.
type PurchaseOrderInput struct {
	ID string `json:"id" jsonschema:"purchase order ID"`
}

// UpstreamOutput carries an upstream response body.
type UpstreamOutput struct {
	Data interface{} `json:"data"`
}

// NewMCPServer creates an MCP server with inventory tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sellercloud-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Sellercloud inventory operations. " +
				"Use these tools to look up products, move stock and receive purchase orders.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "transfer_inventory",
		Description: "Move a quantity of stock from one SKU/warehouse to another.",
	}, h.mcpTransferInventory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_skus",
		Description: "Search the catalog by product group and/or keyword.",
	}, h.mcpSearchSKUs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product_info",
		Description: "Get title, UPC and attribute columns for one SKU.",
	}, h.mcpGetProductInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_purchase_order",
		Description: "List the ordered lines of a purchase order.",
	}, h.mcpGetPurchaseOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_purchase_order_items",
		Description: "List the lines of a purchase order from its items endpoint.",
	}, h.mcpGetPurchaseOrderItems)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "receive_purchase_order",
		Description: "Record received quantities against purchase order lines.",
	}, h.mcpReceivePurchaseOrder)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpTransferInventory(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input model.TransferRequest,
) (*mcp.CallToolResult, *UpstreamOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, h.mcpError(err)
	}

	result, err := h.adapter.Transfer(ctx, &input)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &UpstreamOutput{Data: decodeAny(result.Data)}, nil
}

func (h *Handler) mcpSearchSKUs(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchSKUsInput,
) (*mcp.CallToolResult, *SearchSKUsOutput, error) {
	query := model.SKUSearchQuery{
		ProductGroup:           input.ProductGroup,
		ProductGroupFilterType: input.ProductGroupFilterType,
		Keyword:                input.Keyword,
	}
	if err := query.Validate(); err != nil {
		return nil, nil, h.mcpError(err)
	}

	items, err := h.adapter.SearchSKUs(ctx, &query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := &SearchSKUsOutput{Items: make([]map[string]interface{}, 0, len(items))}
	for _, raw := range items {
		var item map[string]interface{}
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return nil, out, nil
}

func (h *Handler) mcpGetProductInfo(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ProductInfoInput,
) (*mcp.CallToolResult, *ProductInfoOutput, error) {
	if input.SKU == "" {
		return nil, nil, h.mcpError(model.NewValidationError("sku", "is required"))
	}

	product, err := h.adapter.LookupProduct(ctx, input.SKU)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &ProductInfoOutput{Found: product != nil, Product: product}, nil
}

func (h *Handler) mcpGetPurchaseOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PurchaseOrderInput,
) (*mcp.CallToolResult, *model.PurchaseOrderLines, error) {
	id, err := sellercloud.ParsePurchaseOrderID(input.ID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	lines, err := h.adapter.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, lines, nil
}

func (h *Handler) mcpGetPurchaseOrderItems(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PurchaseOrderInput,
) (*mcp.CallToolResult, *model.PurchaseOrderLines, error) {
	id, err := sellercloud.ParsePurchaseOrderID(input.ID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	lines, err := h.adapter.GetPurchaseOrderItems(ctx, id)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, lines, nil
}

func (h *Handler) mcpReceivePurchaseOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input model.ReceiveRequest,
) (*mcp.CallToolResult, *UpstreamOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, h.mcpError(err)
	}

	resp, err := h.adapter.ReceivePurchaseOrder(ctx, &input)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	// Tools have no status line; a rejected receive is a tool error.
	if resp.StatusCode >= 400 {
		return nil, nil, h.mcpError(model.NewUpstreamError(resp.StatusCode, resp.Body))
	}

	return nil, &UpstreamOutput{Data: decodeAny(resp.Body)}, nil
}

// mcpError converts adapter errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if errors.Is(apiErr, model.ErrUpstream) && len(apiErr.Body) > 0 {
			return fmt.Errorf("%s: %s: %s", apiErr.Code, apiErr.Message, apiErr.Body)
		}
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

// decodeAny decodes an upstream body for structured tool output.
// Non-JSON bodies are returned as a string.
func decodeAny(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}
