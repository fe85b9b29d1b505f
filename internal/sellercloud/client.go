// Package sellercloud is the client for the Sellercloud REST and SOAP APIs.
//
// REST calls carry a bearer token drawn from a shared credential cache;
// request and response fields are renamed through the tables in fields.go.
// SOAP calls are relayed without authentication or inspection.
package sellercloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"sellercloud-proxy/internal/adapter"
	"sellercloud-proxy/internal/credential"
	"sellercloud-proxy/internal/model"
)

// =============================================================================
// SELLERCLOUD API CLIENT
// =============================================================================
//
// Every REST call follows the same path:
//   1. Get a bearer token from the credential cache (may trigger one shared fetch)
//   2. Send the mapped request with Authorization: Bearer <token>
//   3. 2xx bodies are handed back for reshaping; anything else becomes an
//      UPSTREAM_ERROR carrying the upstream status and body
//
// A 401 means the token was revoked server-side before its computed expiry.
// The token is dropped from the cache so the next call re-authenticates.
// The failed call itself is not retried.
// =============================================================================

const (
	// DefaultAPIURL is the Sellercloud REST base URL.
	DefaultAPIURL = "https://api.sellercloud.com/api"

	// DefaultSOAPURL is the legacy SOAP service endpoint.
	DefaultSOAPURL = "http://unifiedsolutions.ws.sellercloud.us/scservice.asmx"

	pathToken          = "/token"
	pathTransfer       = "/inventory/transfer"
	pathCatalog        = "/Catalog"
	pathPurchaseOrders = "/PurchaseOrders"

	userAgent   = "Sellercloud-Proxy/1.0"
	serviceName = "Sellercloud"

	// maxResponseBytes is the largest upstream body accepted.
	maxResponseBytes = 10 << 20
)

// TokenSource supplies bearer tokens. *credential.Cache implements it.
type TokenSource interface {
	Get(ctx context.Context) (credential.Credential, error)
	Invalidate(token string)
}

// Config configures a Client.
type Config struct {
	APIURL     string
	SOAPURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *slog.Logger
}

// Client is the Sellercloud API client. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiURL     string
	soapURL    string
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient creates a Sellercloud client. Tokens is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("token source is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.SOAPURL == "" {
		cfg.SOAPURL = DefaultSOAPURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		soapURL:    cfg.SOAPURL,
		tokens:     cfg.Tokens,
		logger:     cfg.Logger,
	}, nil
}

// === HTTP Helpers ===

// call performs an authenticated REST request and returns the 2xx body.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	resp, err := c.callRaw(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, model.NewUpstreamError(resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}

// callRaw performs an authenticated REST request and returns the response
// whatever its status. Only transport and authentication failures are errors.
func (c *Client) callRaw(ctx context.Context, method, path string, query url.Values, body interface{}) (*model.RawResponse, error) {
	cred, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, query, body, cred.Token)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("creating %s %s request: %w", method, path, err))
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("upstream rejected bearer token, invalidating",
			slog.String("method", method),
			slog.String("path", path),
		)
		c.tokens.Invalidate(cred.Token)
	}
	return resp, nil
}

// newRequest creates a REST request with Bearer token authentication.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}, accessToken string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return req, nil
}

// do executes the request and reads the whole response. A body over
// maxResponseBytes is an error rather than a truncated relay.
func (c *Client) do(req *http.Request) (*model.RawResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUnavailableError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, model.NewUnavailableError(serviceName, fmt.Errorf("reading response: %w", err))
	}
	if len(body) > maxResponseBytes {
		return nil, model.NewUnavailableError(serviceName, fmt.Errorf("response exceeds %d bytes", maxResponseBytes))
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("upstream error response",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
		)
	}

	return &model.RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func poPath(id string, suffix string) string {
	return pathPurchaseOrders + "/" + url.PathEscape(id) + suffix
}

// Ensure Client implements adapter.Adapter.
var _ adapter.Adapter = (*Client)(nil)
