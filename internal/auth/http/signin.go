package http

import (
	"net/http"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
)

type SignInHandler struct {
	SignInService *service.SignInService
	Cookies       httpx.CookieConfig
}

// ServeHTTP exchanges Mini App initData for a credential pair.
//
//	@Summary		Direct sign-in
//	@Description	Verifies Telegram WebApp initData against the bot token, resolves the profile and mints a pair.
//	@Description	The pair is returned inline and also set as HttpOnly cookies.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest	true	"Raw initData"
//	@Success		200		{object}	authsdk.SignInResponse	"Profile and credentials"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed initData"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Bad signature or stale auth_date"
//	@Failure		501		{object}	authsdk.ErrorResponse	"Sign-in not configured"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/signin [post].
func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	issued, err := h.SignInService.SignIn(r.Context(), req.InitData)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.SetCredentialCookies(w, h.Cookies, issued.Credentials.AccessToken, issued.Credentials.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SignInResponse{
		Profile:     toProfile(issued.Profile),
		Credentials: toCredentials(issued.Credentials, time.Now()),
	})
}
