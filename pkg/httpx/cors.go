package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig controls which browser origins may call the API. Listed
// origins are allowed credentials (cookies). "*" opens the API to any
// origin without credentials; it never turns into an echoed origin.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAgeSeconds  int
}

// CORS answers preflight requests and decorates responses for allowed
// origins. Requests from other origins pass through without CORS headers,
// so browsers refuse to expose the response.
func CORS(cfg CORSConfig) Middleware {
	methods := strings.Join(withDefault(cfg.AllowedMethods, "GET", "POST", "OPTIONS"), ", ")
	headers := strings.Join(withDefault(cfg.AllowedHeaders, "Content-Type", "Authorization", "X-Refresh-Token"), ", ")
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			listed := origin != "" && slices.Contains(cfg.AllowedOrigins, origin)
			if origin == "" || (!listed && !wildcard) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if listed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if cfg.MaxAgeSeconds > 0 {
					h.Set("Access-Control-Max-Age", itoa(cfg.MaxAgeSeconds))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func withDefault(v []string, def ...string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
