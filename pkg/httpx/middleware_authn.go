package httpx

import (
	"net/http"
	"strings"
)

// BearerToken returns the token from an "Authorization: Bearer" header, or
// the empty string.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

// RequireBearerSecret guards machine-to-machine endpoints with a static
// shared secret. An empty secret disables the check.
func RequireBearerSecret(secret string, equal func(a, b string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := BearerToken(r)
			if got == "" || !equal(got, secret) {
				WriteBearerError(w, "invalid_token", "missing or invalid bearer secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteBearerError writes an RFC 6750 style 401.
func WriteBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
