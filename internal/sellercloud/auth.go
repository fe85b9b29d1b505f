package sellercloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"sellercloud-proxy/internal/credential"
)

// Credentials are the service-account credentials exchanged for a token.
type Credentials struct {
	Username string
	Password string
	ClientID string
}

// tokenRequest is the body of POST /token.
type tokenRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ClientID  string `json:"client_id,omitempty"`
	GrantType string `json:"grant_type"`
}

// tokenResponse is the relevant part of the token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticator exchanges service-account credentials for a bearer token.
// It implements credential.Fetcher.
type Authenticator struct {
	client *resty.Client
	creds  Credentials
	clock  clockwork.Clock
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock sets the clock used to turn a JWT exp claim into a lifetime.
func WithClock(clock clockwork.Clock) AuthenticatorOption {
	return func(a *Authenticator) {
		a.clock = clock
	}
}

// NewAuthenticator creates an Authenticator against the REST base URL.
func NewAuthenticator(apiURL string, httpClient *http.Client, creds Credentials, opts ...AuthenticatorOption) *Authenticator {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	a := &Authenticator{
		client: client,
		creds:  creds,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch implements credential.Fetcher.
//
// The lifetime is taken from expires_in. When the server omits it and the
// token is a JWT, the exp claim is used instead; otherwise the cache applies
// its default lifetime.
func (a *Authenticator) Fetch(ctx context.Context) (*credential.Grant, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(&tokenRequest{
			Username:  a.creds.Username,
			Password:  a.creds.Password,
			ClientID:  a.creds.ClientID,
			GrantType: "password",
		}).
		Post(pathToken)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode(), truncate(resp.Body(), 200))
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = a.lifetimeFromClaims(tr.AccessToken)
	}

	return &credential.Grant{
		AccessToken: tr.AccessToken,
		ExpiresIn:   lifetime,
	}, nil
}

// lifetimeFromClaims reads the exp claim of a JWT access token without
// verifying it. Zero when the token is opaque or carries no exp.
func (a *Authenticator) lifetimeFromClaims(token string) time.Duration {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	if d := claims.ExpiresAt.Sub(a.clock.Now()); d > 0 {
		return d
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
