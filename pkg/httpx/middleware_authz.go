package httpx

import (
	"net/http"
)

// RequireAnyRole the caller must hold at least one of the provided roles.
// It must run after a middleware that stores claims in the context.
func RequireAnyRole(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			for _, role := range required {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "insufficient_role",
				"error_description": "the caller does not hold a required role",
			})
		})
	}
}
