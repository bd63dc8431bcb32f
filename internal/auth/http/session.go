package http

import (
	"net/http"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
)

// SessionMiddleware authenticates the request from its credential pair and
// stores the claims in the context. When the access half had expired and
// the refresh half was still good, both cookies and the X-Access-Token and
// X-Refresh-Token headers carry the rotated pair.
func SessionMiddleware(guard *service.SessionGuard, cookies httpx.CookieConfig) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, refresh := httpx.CredentialsFromRequest(r)

			res, err := guard.Authenticate(r.Context(), access, refresh)
			if err != nil {
				httpx.ClearCredentialCookies(w, cookies)
				httpx.WriteBearerError(w, authsdk.ErrorCodeInvalidToken, "credentials are missing, invalid or expired")
				return
			}

			if res.Rotated != nil {
				httpx.SetCredentialCookies(w, cookies, res.Rotated.AccessToken, res.Rotated.RefreshToken)
				w.Header().Set(authsdk.AccessTokenHeader, res.Rotated.AccessToken)
				w.Header().Set(authsdk.RefreshTokenHeader, res.Rotated.RefreshToken)
			}

			next.ServeHTTP(w, r.WithContext(httpx.ContextWithClaims(r.Context(), res.Claims)))
		})
	}
}

type MeHandler struct {
	ProfileService *service.ProfileService
}

// ServeHTTP returns the caller's profile.
//
//	@Summary		Current profile
//	@Description	Returns the profile of the authenticated caller. Credentials come from cookies or from
//	@Description	Authorization plus X-Refresh-Token. A rotated pair is returned in cookies and headers.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Param			X-Refresh-Token	header		string					false	"Refresh token for clients without cookies"
//	@Success		200				{object}	authsdk.Profile			"Profile"
//	@Failure		401				{object}	authsdk.ErrorResponse	"Not authenticated"
//	@Failure		500				{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	profile, err := h.ProfileService.GetByID(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfile(profile))
}

type LogoutHandler struct {
	Cookies httpx.CookieConfig
}

// ServeHTTP clears both credential cookies. Tokens stay valid until they
// expire.
//
//	@Summary		Logout
//	@Description	Clears the credential cookies.
//	@Tags			Session
//	@Success		204	"Cookies cleared"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	httpx.ClearCredentialCookies(w, h.Cookies)
	w.WriteHeader(http.StatusNoContent)
}
