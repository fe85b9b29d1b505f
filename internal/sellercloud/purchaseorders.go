package sellercloud

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"sellercloud-proxy/internal/model"
)

// GetPurchaseOrder returns the ordered lines of a purchase order, read from
// the order's Products list.
func (c *Client) GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
	body, err := c.call(ctx, http.MethodGet, poPath(id, ""), nil, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, model.NewMalformedResponseError("purchase order response is not JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, model.NewMalformedResponseError("purchase order response is not an object")
	}
	// An order with no products has no Products key.
	products := root.Get("Products")
	if products.Exists() && !products.IsArray() {
		return nil, model.NewMalformedResponseError("purchase order Products is not an array")
	}
	return linesFrom(products), nil
}

// GetPurchaseOrderItems returns the lines of a purchase order from its items
// endpoint, which answers either {Items:[...]} or a bare array.
func (c *Client) GetPurchaseOrderItems(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
	body, err := c.call(ctx, http.MethodGet, poPath(id, "/items"), nil, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, model.NewMalformedResponseError("purchase order items response is not JSON")
	}

	root := gjson.ParseBytes(body)
	switch {
	case root.IsArray():
		return linesFrom(root), nil
	case root.IsObject():
		items := root.Get("Items")
		if !items.IsArray() {
			return nil, model.NewMalformedResponseError("purchase order items response has no Items array")
		}
		return linesFrom(items), nil
	default:
		return nil, model.NewMalformedResponseError("unexpected purchase order items shape")
	}
}

// ReceivePurchaseOrder records received quantities against a purchase order.
// The upstream response is returned whatever its status.
func (c *Client) ReceivePurchaseOrder(ctx context.Context, req *model.ReceiveRequest) (*model.RawResponse, error) {
	fields, err := toFields(req)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	path := poPath(strconv.Itoa(req.POID), "/receive")
	return c.callRaw(ctx, http.MethodPost, path, nil, receiveFields.Apply(fields))
}

func linesFrom(list gjson.Result) *model.PurchaseOrderLines {
	out := &model.PurchaseOrderLines{Lines: []model.PurchaseOrderLine{}}
	list.ForEach(func(_, item gjson.Result) bool {
		out.Lines = append(out.Lines, poLineFromItem(item))
		return true
	})
	return out
}

// ParsePurchaseOrderID validates a purchase order id taken from a URL path.
func ParsePurchaseOrderID(s string) (string, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return "", model.NewValidationError("id", fmt.Sprintf("%q is not a purchase order id", s))
	}
	return strconv.FormatInt(n, 10), nil
}
