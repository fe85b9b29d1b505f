package sellercloud

import (
	"context"
	"encoding/json"
	"net/http"

	"sellercloud-proxy/internal/model"
)

// Transfer moves stock between SKUs and/or warehouses.
// Optional request fields left unset are absent from the upstream body.
func (c *Client) Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	fields, err := toFields(req)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	body, err := c.call(ctx, http.MethodPost, pathTransfer, nil, transferFields.Apply(fields))
	if err != nil {
		return nil, err
	}

	return &model.TransferResult{Data: rawJSON(body)}, nil
}

// rawJSON returns body as embeddable JSON. Non-JSON bodies become a JSON
// string and empty bodies become null.
func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	s, _ := json.Marshal(string(body))
	return json.RawMessage(s)
}
