package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

var serviceErrors = map[error]*authsdk.APIError{
	service.ErrSessionNotFound:     authsdk.ErrSessionNotFound,
	service.ErrSessionNotPending:   authsdk.ErrSessionNotPending,
	service.ErrSessionExpired:      authsdk.ErrSessionExpired,
	service.ErrSessionNotCompleted: authsdk.ErrSessionNotCompleted,
	service.ErrInvalidIdentity:     authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "identity requires tg_id and first_name"),
	service.ErrProfileNotFound:     authsdk.ErrProfileNotFound,
	service.ErrInvalidSignature:    authsdk.ErrInvalidSignature,
	service.ErrMalformedAssertion:  authsdk.ErrMalformedAssertion,
	service.ErrAssertionExpired:    authsdk.ErrAssertionExpired,
	service.ErrSignInDisabled:      authsdk.ErrSignInDisabled,
	service.ErrInvalidCredential:   authsdk.ErrInvalidToken,
	service.ErrUnauthorized:        authsdk.ErrInvalidToken,
}

// apiError maps a service error onto its wire form. Upstream and unknown
// errors become server_error.
func apiError(err error) *authsdk.APIError {
	if service.IsUpstream(err) {
		return authsdk.ErrServerError
	}
	for sentinel, apiErr := range serviceErrors {
		if errors.Is(err, sentinel) {
			return apiErr
		}
	}
	return authsdk.ErrServerError
}

// writeServiceError logs and writes err.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apiError(err)
	log := slogx.FromContext(r.Context())
	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err))
	} else {
		log.Info("request rejected", slog.String("code", apiErr.Code))
	}
	apiErr.WriteError(w)
}
