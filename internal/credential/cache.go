// Package credential holds the process-wide upstream bearer token.
//
// A Cache owns at most one Credential. Get returns it while it is fresh and
// otherwise fetches a replacement; concurrent callers that find the cache
// expired share a single fetch.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"sellercloud-proxy/internal/model"
)

const (
	// DefaultSafetyMargin is subtracted from the server-reported lifetime.
	DefaultSafetyMargin = 30 * time.Second

	// DefaultLifetime is assumed when the grant reports no lifetime.
	DefaultLifetime = 5 * time.Minute

	// DefaultFetchTimeout bounds a single upstream authentication call.
	DefaultFetchTimeout = 30 * time.Second

	flightKey = "credential"
)

// Credential is a bearer token and the instant from which it must no longer be used.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Grant is a token issued by the upstream authentication endpoint.
type Grant struct {
	AccessToken string
	// ExpiresIn is the lifetime reported by the server; zero when unknown.
	ExpiresIn time.Duration
}

// Fetcher obtains a new grant from the upstream.
type Fetcher interface {
	Fetch(ctx context.Context) (*Grant, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (*Grant, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (*Grant, error) {
	return f(ctx)
}

// Config configures a Cache. Only Fetcher is required.
type Config struct {
	Fetcher      Fetcher
	Clock        clockwork.Clock
	Logger       *slog.Logger
	SafetyMargin time.Duration
	FetchTimeout time.Duration
}

// Cache is the single shared credential store. Safe for concurrent use.
type Cache struct {
	fetcher      Fetcher
	clock        clockwork.Clock
	logger       *slog.Logger
	margin       time.Duration
	fetchTimeout time.Duration

	group singleflight.Group

	mu   sync.RWMutex // protects cred
	cred *Credential
}

// New creates an empty Cache. Nothing is fetched until the first Get.
func New(cfg Config) (*Cache, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("credential fetcher is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	return &Cache{
		fetcher:      cfg.Fetcher,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		margin:       cfg.SafetyMargin,
		fetchTimeout: cfg.FetchTimeout,
	}, nil
}

// Get returns a credential that is valid now, fetching one if needed.
//
// A failed fetch returns an *model.APIError wrapping model.ErrAuthentication
// and leaves nothing new in the cache. If ctx ends while waiting on a shared
// fetch, Get returns ctx.Err() and the fetch continues for the other waiters.
func (c *Cache) Get(ctx context.Context) (Credential, error) {
	if cred, ok := c.cached(); ok {
		return cred, nil
	}

	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		// A flight that finished just before this one started may already
		// have stored a fresh credential.
		if cred, ok := c.cached(); ok {
			return cred, nil
		}
		return c.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

// Invalidate drops the cached credential if it still holds token.
// Used after the upstream rejects token, so the next Get re-authenticates.
func (c *Cache) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cred != nil && c.cred.Token == token {
		c.cred = nil
	}
}

// Expiry reports when the cached credential expires, if one is held.
func (c *Cache) Expiry() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cred == nil {
		return time.Time{}, false
	}
	return c.cred.ExpiresAt, true
}

// cached returns the held credential when now is strictly before its expiry.
func (c *Cache) cached() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cred == nil || !c.clock.Now().Before(c.cred.ExpiresAt) {
		return Credential{}, false
	}
	return *c.cred, true
}

// refresh performs the upstream fetch and replaces the cached credential.
// The fetch runs detached from the triggering caller's cancellation so that
// one caller going away does not fail everyone sharing the flight.
func (c *Cache) refresh(ctx context.Context) (Credential, error) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	issuedAt := c.clock.Now()
	grant, err := c.fetcher.Fetch(fetchCtx)
	if err != nil {
		c.logger.Error("credential fetch failed", slog.String("error", err.Error()))
		return Credential{}, model.NewAuthenticationError(err)
	}
	if grant == nil || grant.AccessToken == "" {
		c.logger.Error("credential fetch returned empty token")
		return Credential{}, model.NewAuthenticationError(fmt.Errorf("empty access token"))
	}

	lifetime := grant.ExpiresIn
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	cred := Credential{
		Token:     grant.AccessToken,
		ExpiresAt: issuedAt.Add(lifetime - c.margin),
	}

	c.mu.Lock()
	c.cred = &cred
	c.mu.Unlock()

	c.logger.Info("credential refreshed",
		slog.Time("expires_at", cred.ExpiresAt),
		slog.Duration("lifetime", lifetime),
	)
	return cred, nil
}
