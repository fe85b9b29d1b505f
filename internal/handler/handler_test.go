package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sellercloud-proxy/internal/adapter"
	"sellercloud-proxy/internal/model"
	"sellercloud-proxy/internal/sellercloud"
)

func testHandler(mock *adapter.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(mock, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// decodeResponse decodes a JSON response body into a generic map.
func decodeResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("Failed to decode response: %v\nBody: %s", err, body)
	}
	return m
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
		}

		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s: Status = %s, want ok", path, resp.Status)
		}
	}
}

func TestHandleTransfer(t *testing.T) {
	var got *model.TransferRequest
	mock := &adapter.Mock{
		TransferFunc: func(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
			got = req
			return &model.TransferResult{Data: json.RawMessage(`{"TransferID":9}`)}, nil
		},
	}
	_, mux := testHandler(mock)

	body := `{"sourceSku":"A","destinationSku":"B","quantity":2,"fromWarehouseId":1,"toBinId":5}`
	req := httptest.NewRequest("POST", "/transfer", strings.NewReader(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	want := map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"TransferID": float64(9)},
	}
	if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	if got == nil || got.ToBinID == nil || *got.ToBinID != 5 {
		t.Errorf("ToBinID not passed to adapter: %+v", got)
	}
	if got.ToWarehouseID != nil {
		t.Errorf("ToWarehouseID = %v, want nil", *got.ToWarehouseID)
	}
}

func TestHandleTransferValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "invalid json",
			body:    `{not json`,
			wantMsg: "invalid body: invalid JSON",
		},
		{
			name:    "missing source sku",
			body:    `{"destinationSku":"B","quantity":1,"fromWarehouseId":1}`,
			wantMsg: "invalid sourceSku: is required",
		},
		{
			name:    "zero quantity",
			body:    `{"sourceSku":"A","destinationSku":"B","quantity":0,"fromWarehouseId":1}`,
			wantMsg: "invalid quantity: is required",
		},
		{
			name:    "negative quantity",
			body:    `{"sourceSku":"A","destinationSku":"B","quantity":-3,"fromWarehouseId":1}`,
			wantMsg: "invalid quantity: must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &adapter.Mock{
				TransferFunc: func(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
					called = true
					return &model.TransferResult{}, nil
				},
			}
			_, mux := testHandler(mock)

			req := httptest.NewRequest("POST", "/transfer", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			resp := decodeResponse(t, w.Body.Bytes())
			if resp["success"] != false || resp["code"] != "VALIDATION_ERROR" || resp["error"] != tt.wantMsg {
				t.Errorf("response = %v, want error %q", resp, tt.wantMsg)
			}
			if called {
				t.Error("adapter should not be called for invalid input")
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		mockErr    error
		wantStatus int
		wantError  interface{}
		wantCode   string
	}{
		{
			name:       "upstream forbidden with json body",
			mockErr:    model.NewUpstreamError(http.StatusForbidden, []byte(`{"Message":"no access"}`)),
			wantStatus: http.StatusForbidden,
			wantError:  map[string]interface{}{"Message": "no access"},
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "upstream error with text body",
			mockErr:    model.NewUpstreamError(http.StatusBadRequest, []byte("bad sku")),
			wantStatus: http.StatusBadRequest,
			wantError:  "bad sku",
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "authentication failure",
			mockErr:    model.NewAuthenticationError(errors.New("invalid_grant")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "failed to authenticate with upstream",
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "malformed response",
			mockErr:    model.NewMalformedResponseError("Items is not an array"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "malformed upstream response",
			wantCode:   "MALFORMED_UPSTREAM_RESPONSE",
		},
		{
			name:       "upstream unreachable",
			mockErr:    model.NewUnavailableError("Sellercloud", errors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantError:  "Sellercloud request failed",
			wantCode:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:       "unexpected error",
			mockErr:    errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "an internal error occurred",
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &adapter.Mock{
				TransferFunc: func(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
					return nil, tt.mockErr
				},
			}
			_, mux := testHandler(mock)

			body := `{"sourceSku":"A","destinationSku":"B","quantity":1,"fromWarehouseId":1}`
			req := httptest.NewRequest("POST", "/transfer", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			want := map[string]interface{}{
				"success": false,
				"error":   tt.wantError,
				"code":    tt.wantCode,
			}
			if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleSearchSKUs(t *testing.T) {
	var got *model.SKUSearchQuery
	mock := &adapter.Mock{
		SearchSKUsFunc: func(ctx context.Context, q *model.SKUSearchQuery) ([]json.RawMessage, error) {
			got = q
			return []json.RawMessage{json.RawMessage(`{"ID":"A"}`)}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("GET", "/api/skus?productGroup=Phones&productGroupFilterType=Equals", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}
	want := map[string]interface{}{
		"success": true,
		"items":   []interface{}{map[string]interface{}{"ID": "A"}},
	}
	if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	wantQuery := &model.SKUSearchQuery{ProductGroup: "Phones", ProductGroupFilterType: "Equals"}
	if diff := cmp.Diff(wantQuery, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleSearchSKUsRequiresFilter(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/api/skus", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleProductInfo(t *testing.T) {
	mock := &adapter.Mock{
		LookupProductFunc: func(ctx context.Context, sku string) (*model.ProductInfo, error) {
			if sku != "IP13" {
				return nil, nil
			}
			return &model.ProductInfo{
				SKU:      "IP13",
				Title:    "iPhone 13",
				UPC:      "1942",
				Capacity: "128GB",
				Grade:    "A",
			}, nil
		},
	}
	_, mux := testHandler(mock)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/product-info?sku=IP13", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		want := map[string]interface{}{
			"success":         true,
			"found":           true,
			"title":           "iPhone 13",
			"upc":             "1942",
			"manufacturerSku": "",
			"capacity":        "128GB",
			"grade":           "A",
			"color":           "",
			"colors":          "",
			"unlockedSku":     "",
			"lockedSku":       "",
		}
		if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/product-info?sku=NOPE", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		want := map[string]interface{}{"success": true, "found": false}
		if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing sku", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/product-info", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestHandlePurchaseOrderRoutes(t *testing.T) {
	lines := &model.PurchaseOrderLines{Lines: []model.PurchaseOrderLine{
		{ID: 11, SKU: "A", QuantityOrdered: 4},
	}}
	var gotPO, gotItems string
	mock := &adapter.Mock{
		GetPurchaseOrderFunc: func(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
			gotPO = id
			return lines, nil
		},
		GetPurchaseOrderItemsFunc: func(ctx context.Context, id string) (*model.PurchaseOrderLines, error) {
			gotItems = id
			return lines, nil
		},
	}
	_, mux := testHandler(mock)

	want := map[string]interface{}{
		"lines": []interface{}{
			map[string]interface{}{"id": float64(11), "sku": "A", "quantityOrdered": float64(4)},
		},
	}

	for _, path := range []string{"/api/po/42", "/api/po/42/items"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: Status = %d, want %d\nBody: %s", path, w.Code, http.StatusOK, w.Body.String())
		}
		if diff := cmp.Diff(want, decodeResponse(t, w.Body.Bytes())); diff != "" {
			t.Errorf("%s: response mismatch (-want +got):\n%s", path, diff)
		}
	}
	if gotPO != "42" || gotItems != "42" {
		t.Errorf("ids = %q, %q, want 42", gotPO, gotItems)
	}
}

func TestHandlePurchaseOrderInvalidID(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/api/po/abc", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleReceivePurchaseOrder(t *testing.T) {
	var got *model.ReceiveRequest
	mock := &adapter.Mock{
		ReceivePurchaseOrderFunc: func(ctx context.Context, req *model.ReceiveRequest) (*model.RawResponse, error) {
			got = req
			return &model.RawResponse{
				StatusCode:  http.StatusCreated,
				ContentType: "application/json; charset=utf-8",
				Body:        []byte(`{"Received":true}`),
			}, nil
		},
	}
	_, mux := testHandler(mock)

	body := `{"poId":42,"lines":[{"id":11,"quantity":2,"binId":7}]}`
	req := httptest.NewRequest("POST", "/api/po/receive", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != `{"Received":true}` {
		t.Errorf("Body = %s, want upstream body verbatim", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got == nil || got.POID != 42 || len(got.Lines) != 1 || *got.Lines[0].BinID != 7 {
		t.Errorf("request not passed to adapter: %+v", got)
	}
}

func TestHandleReceivePurchaseOrderValidation(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("POST", "/api/po/receive", strings.NewReader(`{"poId":42,"lines":[]}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleSOAPRoutes(t *testing.T) {
	tests := []struct {
		path       string
		wantAction string
	}{
		{"/authenticate", sellercloud.ActionAuthenticate},
		{"/get-product", sellercloud.ActionGetProductDetailsBySerial},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var gotAction string
			var gotEnvelope []byte
			mock := &adapter.Mock{
				SOAPFunc: func(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error) {
					gotAction = action
					gotEnvelope = envelope
					return &model.RawResponse{
						StatusCode:  http.StatusInternalServerError,
						ContentType: "text/xml; charset=utf-8",
						Body:        []byte("<soap:Fault/>"),
					}, nil
				},
			}
			_, mux := testHandler(mock)

			envelope := []byte(`<soap:Envelope><soap:Body/></soap:Envelope>`)
			req := httptest.NewRequest("POST", tt.path, bytes.NewReader(envelope))
			req.Header.Set("Content-Type", "text/xml")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if gotAction != tt.wantAction {
				t.Errorf("action = %q, want %q", gotAction, tt.wantAction)
			}
			if !bytes.Equal(gotEnvelope, envelope) {
				t.Errorf("envelope = %q, want verbatim", gotEnvelope)
			}
			if w.Code != http.StatusInternalServerError {
				t.Errorf("Status = %d, want upstream 500", w.Code)
			}
			if w.Body.String() != "<soap:Fault/>" {
				t.Errorf("Body = %q, want upstream body", w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/xml; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHandleSOAPWithoutUpstreamContentType(t *testing.T) {
	mock := &adapter.Mock{
		SOAPFunc: func(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error) {
			return &model.RawResponse{StatusCode: http.StatusOK, Body: []byte("<ok/>")}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("POST", "/authenticate", strings.NewReader("<x/>"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/xml; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/xml; charset=utf-8", ct)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/transfer", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
