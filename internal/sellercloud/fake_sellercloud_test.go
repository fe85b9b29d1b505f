package sellercloud

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"
)

type recordedRequest struct {
	Header http.Header
	Query  url.Values
	Body   []byte
}

type fakeResponse struct {
	status      int
	contentType string
	body        string
}

// fakeSellercloud serves the REST API under /api and the SOAP service at
// /scservice.asmx. Responses are canned per "METHOD /path"; every request is
// recorded under the same key.
type fakeSellercloud struct {
	srv        *httptest.Server
	tokenCalls atomic.Int32
	calls      atomic.Int32

	mu        sync.Mutex
	requests  map[string][]recordedRequest
	responses map[string]fakeResponse
	// tokenResponse, when set, replaces the default token grant.
	tokenResponse *fakeResponse
	// rejectToken makes REST routes answer 401 for this bearer token.
	rejectToken string
}

func newFakeSellercloud() *fakeSellercloud {
	router := httprouter.New()
	fake := &fakeSellercloud{
		requests:  make(map[string][]recordedRequest),
		responses: make(map[string]fakeResponse),
		srv:       httptest.NewServer(router),
	}

	router.POST("/api/token", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		n := fake.tokenCalls.Add(1)
		fake.record("POST /api/token", r)

		fake.mu.Lock()
		override := fake.tokenResponse
		fake.mu.Unlock()
		if override != nil {
			fake.write(rw, *override)
			return
		}
		fake.write(rw, fakeResponse{
			status: http.StatusOK,
			body:   fmt.Sprintf(`{"access_token":"tok-%d","token_type":"bearer","expires_in":3600}`, n),
		})
	})

	rest := func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fake.calls.Add(1)
		key := r.Method + " " + r.URL.Path
		fake.record(key, r)

		fake.mu.Lock()
		reject := fake.rejectToken
		resp, ok := fake.responses[key]
		fake.mu.Unlock()

		if reject != "" && r.Header.Get("Authorization") == "Bearer "+reject {
			fake.write(rw, fakeResponse{status: http.StatusUnauthorized, body: `{"Message":"token revoked"}`})
			return
		}
		if !ok {
			resp = fakeResponse{status: http.StatusOK, body: `{}`}
		}
		fake.write(rw, resp)
	}
	router.POST("/api/inventory/transfer", rest)
	router.GET("/api/Catalog", rest)
	router.GET("/api/PurchaseOrders/:id", rest)
	router.GET("/api/PurchaseOrders/:id/items", rest)
	router.POST("/api/PurchaseOrders/:id/receive", rest)

	router.POST("/scservice.asmx", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fake.calls.Add(1)
		fake.record("POST /scservice.asmx", r)

		fake.mu.Lock()
		resp, ok := fake.responses["POST /scservice.asmx"]
		fake.mu.Unlock()
		if !ok {
			resp = fakeResponse{status: http.StatusOK, contentType: "text/xml; charset=utf-8", body: "<ok/>"}
		}
		fake.write(rw, resp)
	})

	return fake
}

func (f *fakeSellercloud) Close() {
	f.srv.Close()
}

func (f *fakeSellercloud) APIURL() string {
	return f.srv.URL + "/api"
}

func (f *fakeSellercloud) SOAPURL() string {
	return f.srv.URL + "/scservice.asmx"
}

func (f *fakeSellercloud) Respond(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = fakeResponse{status: status, body: body}
}

func (f *fakeSellercloud) RespondWith(key string, resp fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = resp
}

func (f *fakeSellercloud) SetTokenResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenResponse = &fakeResponse{status: status, body: body}
}

func (f *fakeSellercloud) RejectToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectToken = token
}

// Requests returns every request recorded under key.
func (f *fakeSellercloud) Requests(key string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests[key]...)
}

// LastRequest returns the most recent request recorded under key.
func (f *fakeSellercloud) LastRequest(key string) (recordedRequest, bool) {
	reqs := f.Requests(key)
	if len(reqs) == 0 {
		return recordedRequest{}, false
	}
	return reqs[len(reqs)-1], true
}

func (f *fakeSellercloud) record(key string, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[key] = append(f.requests[key], recordedRequest{
		Header: r.Header.Clone(),
		Query:  r.URL.Query(),
		Body:   body,
	})
}

func (f *fakeSellercloud) write(rw http.ResponseWriter, resp fakeResponse) {
	ct := resp.contentType
	if ct == "" {
		ct = "application/json"
	}
	rw.Header().Set("Content-Type", ct)
	rw.WriteHeader(resp.status)
	_, _ = io.WriteString(rw, resp.body)
}
