// Package transport builds the HTTP clients used for upstream calls.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Fingerprint selects the TLS client hello presented to the upstream.
type Fingerprint string

const (
	// FingerprintStandard uses Go's crypto/tls.
	FingerprintStandard Fingerprint = "standard"

	// FingerprintChrome presents a Chrome client hello via uTLS.
	// Some CDNs in front of the upstream throttle Go's default JA3 hash.
	FingerprintChrome Fingerprint = "chrome"
)

// ParseFingerprint validates a configured fingerprint name. Empty means standard.
func ParseFingerprint(s string) (Fingerprint, error) {
	switch Fingerprint(s) {
	case "", FingerprintStandard:
		return FingerprintStandard, nil
	case FingerprintChrome:
		return FingerprintChrome, nil
	default:
		return "", fmt.Errorf("unknown TLS fingerprint %q (want standard or chrome)", s)
	}
}

// NewHTTPClient returns an http.Client whose every request is bounded by timeout.
func NewHTTPClient(timeout time.Duration, fp Fingerprint) *http.Client {
	var rt http.RoundTripper
	if fp == FingerprintChrome {
		rt = NewChromeTransport(timeout)
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSHandshakeTimeout = timeout
		t.ResponseHeaderTimeout = timeout
		rt = t
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// NewChromeTransport creates an http.RoundTripper that dials TLS with a Chrome
// fingerprint. ALPN picks h2 or http/1.1; plain http:// URLs (the legacy SOAP
// endpoint) go through the HTTP/1.1 transport without TLS.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ReadIdleTimeout: timeout,
	}

	h1Transport := &http.Transport{
		DialContext: dialer.DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     false,
	}

	return &chromeTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
// HTTPS tries HTTP/2 first and falls back to HTTP/1.1.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	// A request body already consumed by the h2 attempt cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return nil, err
	}
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
