package middleware

import (
	"net/http"
	"strings"
)

const (
	allowOriginHeader   = "Access-Control-Allow-Origin"
	allowHeadersHeader  = "Access-Control-Allow-Headers"
	allowMethodsHeader  = "Access-Control-Allow-Methods"
	requestMethodHeader = "Access-Control-Request-Method"
	exposeHeadersHeader = "Access-Control-Expose-Headers"
	maxAgeHeader        = "Access-Control-Max-Age"
)

var (
	corsAllowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ", ")
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "Authorization", "SOAPAction", "Mcp-Session-Id", "Mcp-Protocol-Version", RequestIDHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{"Mcp-Session-Id", RequestIDHeader}, ", ")
)

// CORS returns middleware that sets cross-origin headers for the given
// origins. "*" allows any origin. Preflight requests are answered directly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSpace(o)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origins["*"] && origin == "":
				w.Header().Set(allowOriginHeader, "*")
			case origin != "" && (origins["*"] || origins[origin]):
				w.Header().Set(allowOriginHeader, origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set(exposeHeadersHeader, corsExposeHeaders)

			if r.Method == http.MethodOptions && r.Header.Get(requestMethodHeader) != "" {
				w.Header().Set(allowMethodsHeader, corsAllowMethods)
				w.Header().Set(allowHeadersHeader, corsAllowHeaders)
				w.Header().Set(maxAgeHeader, "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
