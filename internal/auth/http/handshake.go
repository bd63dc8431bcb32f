package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

type HandshakeHandler struct {
	HandshakeService *service.HandshakeService
}

// HandleBegin starts a remote handshake.
//
//	@Summary		Begin a remote handshake
//	@Description	Creates a pending pairing session and returns the bot deep link the user has to open.
//	@Description	The session expires five minutes after creation unless configured otherwise.
//	@Tags			Handshake
//	@Produce		json
//	@Success		201	{object}	authsdk.BeginHandshakeResponse	"Pairing token, bot link and deadline"
//	@Failure		429	{object}	authsdk.ErrorResponse			"Rate limit exceeded"
//	@Failure		500	{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/auth/handshake [post].
func (h *HandshakeHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	hs, err := h.HandshakeService.Begin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.BeginHandshakeResponse{
		Token:             hs.Token,
		ExternalActionURL: hs.ExternalActionURL,
		ExpiresAt:         hs.ExpiresAt.UnixMilli(),
	})
}

// HandleComplete is called by the bot after the user confirmed.
//
//	@Summary		Complete a remote handshake
//	@Description	Binds the Telegram identity to the pairing session and mints a credential pair.
//	@Description	Exactly one completion per session succeeds.
//	@Tags			Handshake
//	@Security		BotSecret
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CompleteHandshakeRequest	true	"Pairing token and identity"
//	@Success		200		{object}	authsdk.CompleteHandshakeResponse	"Continuation URL"
//	@Failure		400		{object}	authsdk.ErrorResponse				"Malformed request, invalid identity or expired session"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Missing or wrong bot secret"
//	@Failure		404		{object}	authsdk.ErrorResponse				"Unknown pairing token"
//	@Failure		409		{object}	authsdk.ErrorResponse				"Session already completed"
//	@Failure		500		{object}	authsdk.ErrorResponse				"Internal server error"
//	@Router			/v1/auth/handshake/complete [post].
func (h *HandshakeHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CompleteHandshakeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, httpx.ErrUnsupportedMediaType) {
			authsdk.NewAPIError(http.StatusUnsupportedMediaType, authsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
			return
		}
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Token == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "token is required").WriteError(w)
		return
	}

	res, err := h.HandshakeService.Complete(r.Context(), req.Token, toIdentity(req.Identity))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.CompleteHandshakeResponse{
		Success:         true,
		ContinuationURL: res.ContinuationURL,
	})
}

// HandlePoll reports the session status to the waiting browser.
//
//	@Summary		Poll a remote handshake
//	@Description	Returns pending, completed (with inline credentials), expired or not_found.
//	@Description	Unknown tokens answer 404 with status not_found.
//	@Tags			Handshake
//	@Produce		json
//	@Param			token	query		string							true	"Pairing token"
//	@Success		200		{object}	authsdk.PollHandshakeResponse	"Session status"
//	@Failure		404		{object}	authsdk.PollHandshakeResponse	"Unknown pairing token"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/auth/handshake [get].
func (h *HandshakeHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	res, err := h.HandshakeService.Poll(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.PollHandshakeResponse{Status: string(res.Status)}
	status := http.StatusOK
	switch res.Status {
	case service.PollNotFound:
		status = http.StatusNotFound
	case service.PollCompleted:
		creds := toCredentials(*res.Credentials, time.Now())
		out.Credentials = &creds
	}
	httpx.WriteJSON(w, status, out)
}

// CallbackHandler moves completed credentials into cookies and sends the
// browser to the site.
type CallbackHandler struct {
	HandshakeService *service.HandshakeService
	Cookies          httpx.CookieConfig
	SiteURL          string
}

// ServeHTTP handles the continuation link the bot hands the user.
//
//	@Summary		Handshake continuation
//	@Description	Sets both credential cookies for a completed session and redirects to the site.
//	@Description	Failures redirect with an error query parameter instead.
//	@Tags			Handshake
//	@Param			token	query	string	true	"Pairing token"
//	@Success		302		"Redirect to the site"
//	@Router			/v1/auth/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.redirect(w, r, "missing_token")
		return
	}

	pair, err := h.HandshakeService.Redeem(r.Context(), token)
	if err != nil {
		code := apiError(err).Code
		if service.IsUpstream(err) {
			slogx.FromContext(r.Context()).Error("callback failed", "error", err)
		}
		h.redirect(w, r, code)
		return
	}

	httpx.SetCredentialCookies(w, h.Cookies, pair.AccessToken, pair.RefreshToken)
	h.redirect(w, r, "")
}

func (h *CallbackHandler) redirect(w http.ResponseWriter, r *http.Request, code string) {
	target := h.SiteURL
	if target == "" {
		target = "/"
	}
	if code != "" {
		u, err := url.Parse(target)
		if err != nil {
			u = &url.URL{Path: "/"}
		}
		q := u.Query()
		q.Set("error", code)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	httpx.NoCache(w)
	http.Redirect(w, r, target, http.StatusFound)
}
