package sellercloud

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"

	"sellercloud-proxy/internal/model"
)

const (
	// catalogPageSize is the number of catalog items requested per search.
	catalogPageSize = "50"
)

// SearchSKUs returns the catalog items matching the query, unmodified.
func (c *Client) SearchSKUs(ctx context.Context, q *model.SKUSearchQuery) ([]json.RawMessage, error) {
	query := skuSearchFields.ApplyQuery(map[string]string{
		"productGroup":           q.ProductGroup,
		"productGroupFilterType": q.ProductGroupFilterType,
		"keyword":                q.Keyword,
	})
	query.Set("model.pageNumber", "1")
	query.Set("model.pageSize", catalogPageSize)

	body, err := c.call(ctx, http.MethodGet, pathCatalog, query, nil)
	if err != nil {
		return nil, err
	}

	items, err := catalogItems(body)
	if err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		out = append(out, json.RawMessage(item.Raw))
	}
	return out, nil
}

// LookupProduct returns the reshaped catalog record for sku, or nil when the
// catalog has no matching item.
func (c *Client) LookupProduct(ctx context.Context, sku string) (*model.ProductInfo, error) {
	query := productLookupFields.ApplyQuery(map[string]string{"sku": sku})
	query.Set("model.pageNumber", "1")
	query.Set("model.pageSize", catalogPageSize)

	body, err := c.call(ctx, http.MethodGet, pathCatalog, query, nil)
	if err != nil {
		return nil, err
	}

	items, err := catalogItems(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	// The catalog filter can match on prefixes; prefer the exact SKU.
	item := items[0]
	for _, it := range items {
		if it.Get("ID").String() == sku {
			item = it
			break
		}
	}
	return productFromItem(item), nil
}

// catalogItems extracts the Items array of a catalog response. Anything
// other than an object carrying an Items array is malformed.
func catalogItems(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, model.NewMalformedResponseError("catalog response is not JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, model.NewMalformedResponseError("catalog response is not an object")
	}
	items := root.Get("Items")
	if !items.IsArray() {
		return nil, model.NewMalformedResponseError("catalog response has no Items array")
	}
	return items.Array(), nil
}
