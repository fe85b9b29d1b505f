package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-limiter"
	"github.com/sethvargo/go-limiter/memorystore"

	"sellercloud-proxy/internal/model"
)

// NewRateLimitStore creates an in-memory token bucket allowing perMinute
// requests per key per minute.
func NewRateLimitStore(perMinute int) (limiter.Store, error) {
	return memorystore.New(&memorystore.Config{
		Tokens:   uint64(perMinute),
		Interval: time.Minute,
	})
}

// RateLimit returns middleware that limits requests per client IP.
// Health checks are never limited. A store error lets the request through.
func RateLimit(store limiter.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			tokens, remaining, reset, ok, err := store.Take(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			resetAt := time.Unix(0, int64(reset))
			w.Header().Set("X-RateLimit-Limit", strconv.FormatUint(tokens, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatUint(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC1123))

			if !ok {
				retry := int(time.Until(resetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("path", r.URL.Path),
				)
				writeError(w, model.NewRateLimitError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the last X-Forwarded-For hop when present, otherwise the
// connection's remote host. The load balancer appends the address it saw,
// so earlier hops are caller-supplied and not trusted.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hop := xff
		if i := strings.LastIndex(xff, ","); i >= 0 {
			hop = xff[i+1:]
		}
		if ip := strings.TrimSpace(hop); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
