package sellercloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"sellercloud-proxy/internal/model"
)

// =============================================================================
// FIELD MAPPING TABLES
// =============================================================================
//
// Every caller-facing name and its Sellercloud counterpart lives here, one
// table per endpoint. Request tables rename outbound keys; response tables
// are gjson paths read from the upstream body. Handlers never build upstream
// payloads inline.
// =============================================================================

// Field renames one caller key to its upstream key.
// Each, when set, is applied to every object of a list value.
type Field struct {
	From string
	To   string
	Each Mapping
}

// Mapping is an ordered field-renaming table for one endpoint.
type Mapping []Field

// Apply returns a new map holding src's values under their upstream names.
// Keys missing from the table and nil values are dropped, so optional caller
// fields never reach the upstream as null.
func (m Mapping) Apply(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for _, f := range m {
		v, ok := src[f.From]
		if !ok || v == nil {
			continue
		}
		if f.Each != nil {
			v = applyEach(f.Each, v)
		}
		out[f.To] = v
	}
	return out
}

func applyEach(m Mapping, v interface{}) interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return v
	}
	mapped := make([]interface{}, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			mapped = append(mapped, m.Apply(obj))
			continue
		}
		mapped = append(mapped, item)
	}
	return mapped
}

// ApplyQuery maps caller query parameters to upstream ones, skipping empty values.
func (m Mapping) ApplyQuery(src map[string]string) url.Values {
	q := url.Values{}
	for _, f := range m {
		if v := src[f.From]; v != "" {
			q.Set(f.To, v)
		}
	}
	return q
}

// toFields converts a tagged request struct into a generic map keyed by the
// caller-facing JSON names. Numbers are kept as json.Number so they marshal
// back unchanged.
func toFields(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding request fields: %w", err)
	}
	return fields, nil
}

// transferFields maps POST /transfer onto POST /inventory/transfer.
var transferFields = Mapping{
	{From: "sourceSku", To: "FromSKU"},
	{From: "destinationSku", To: "ToSKU"},
	{From: "quantity", To: "Quantity"},
	{From: "fromWarehouseId", To: "FromWarehouseID"},
	{From: "toWarehouseId", To: "ToWarehouseID"},
	{From: "fromBinId", To: "FromBinID"},
	{From: "toBinId", To: "ToBinID"},
	{From: "transferReason", To: "Reason"},
	{From: "serialNumbers", To: "SerialNumbers"},
}

// skuSearchFields maps GET /api/skus query parameters onto GET /Catalog.
var skuSearchFields = Mapping{
	{From: "productGroup", To: "model.productGroupName"},
	{From: "productGroupFilterType", To: "model.productGroupFilterType"},
	{From: "keyword", To: "model.keyword"},
}

// productLookupFields maps GET /product-info onto GET /Catalog.
var productLookupFields = Mapping{
	{From: "sku", To: "model.sKU"},
}

// receiveLineFields maps one line of POST /api/po/receive.
var receiveLineFields = Mapping{
	{From: "id", To: "ItemID"},
	{From: "quantity", To: "QtyReceived"},
	{From: "warehouseId", To: "WarehouseID"},
	{From: "binId", To: "BinID"},
	{From: "serialNumbers", To: "SerialNumbers"},
}

// receiveFields maps POST /api/po/receive onto POST /PurchaseOrders/{id}/receive.
var receiveFields = Mapping{
	{From: "poId", To: "PurchaseOrderID"},
	{From: "lines", To: "Items", Each: receiveLineFields},
}

// productField reads one attribute of a catalog item.
type productField struct {
	Path   string
	Assign func(p *model.ProductInfo, v string)
}

// productFields reshapes a catalog item. Attributes the upstream stores as
// custom columns are looked up by column name.
var productFields = []productField{
	{Path: "ID", Assign: func(p *model.ProductInfo, v string) { p.SKU = v }},
	{Path: "ProductName", Assign: func(p *model.ProductInfo, v string) { p.Title = v }},
	{Path: "UPC", Assign: func(p *model.ProductInfo, v string) { p.UPC = v }},
	{Path: "ManufacturerSKU", Assign: func(p *model.ProductInfo, v string) { p.ManufacturerSKU = v }},
	{Path: customColumn("CAPACITY"), Assign: func(p *model.ProductInfo, v string) { p.Capacity = v }},
	{Path: customColumn("GRADE"), Assign: func(p *model.ProductInfo, v string) { p.Grade = v }},
	{Path: customColumn("COLOR"), Assign: func(p *model.ProductInfo, v string) { p.Color = v }},
	{Path: customColumn("COLORS"), Assign: func(p *model.ProductInfo, v string) { p.Colors = v }},
	{Path: customColumn("UNLOCKED_SKU"), Assign: func(p *model.ProductInfo, v string) { p.UnlockedSKU = v }},
	{Path: customColumn("LOCKED_SKU"), Assign: func(p *model.ProductInfo, v string) { p.LockedSKU = v }},
}

func customColumn(name string) string {
	return fmt.Sprintf(`CustomColumns.#(ColumnName==%q).Value`, name)
}

// poLineFields are the gjson paths of one purchase-order line.
var poLineFields = struct {
	ID, SKU, QuantityOrdered string
}{
	ID:              "ID",
	SKU:             "ProductID",
	QuantityOrdered: "QtyOrdered",
}

// productFromItem builds ProductInfo from one catalog item.
func productFromItem(item gjson.Result) *model.ProductInfo {
	p := &model.ProductInfo{}
	for _, f := range productFields {
		if v := item.Get(f.Path); v.Exists() {
			f.Assign(p, v.String())
		}
	}
	return p
}

// poLineFromItem builds a PurchaseOrderLine from one upstream line.
func poLineFromItem(item gjson.Result) model.PurchaseOrderLine {
	return model.PurchaseOrderLine{
		ID:              item.Get(poLineFields.ID).Int(),
		SKU:             item.Get(poLineFields.SKU).String(),
		QuantityOrdered: int(item.Get(poLineFields.QuantityOrdered).Int()),
	}
}
