package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bonechkabonechka/tgauth/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeSessionNotFound     = "session_not_found"
	ErrorCodeSessionNotPending   = "session_not_pending"
	ErrorCodeSessionExpired      = "session_expired"
	ErrorCodeSessionNotCompleted = "session_not_completed"
	ErrorCodeInvalidSignature    = "invalid_signature"
	ErrorCodeMalformedAssertion  = "malformed_assertion"
	ErrorCodeAssertionExpired    = "assertion_expired"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeInsufficientRole    = "insufficient_role"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeNotImplemented      = "not_implemented"
	ErrorCodeRateLimited         = "rate_limit_exceeded"
	ErrorCodeNotReady            = "not_ready"
	ErrorCodeServerError         = "server_error"
)

// APIError is the error body every endpoint returns. The server writes it
// with WriteError and the client parses it back from non-2xx responses.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code, so errors.Is(err, authsdk.ErrSessionExpired) works on
// errors parsed from a response.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as a JSON response with caching disabled.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrSessionNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeSessionNotFound,
		Description: "pairing session not found",
	}

	ErrSessionNotPending = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeSessionNotPending,
		Description: "pairing session already completed",
	}

	ErrSessionExpired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeSessionExpired,
		Description: "pairing session expired",
	}

	ErrSessionNotCompleted = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeSessionNotCompleted,
		Description: "pairing session has not been completed yet",
	}

	ErrInvalidSignature = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidSignature,
		Description: "init data signature is invalid",
	}

	ErrMalformedAssertion = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMalformedAssertion,
		Description: "init data is malformed",
	}

	ErrAssertionExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeAssertionExpired,
		Description: "init data is too old",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "credentials are missing, invalid or expired",
	}

	ErrProfileNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "profile not found",
	}

	ErrSignInDisabled = &APIError{
		StatusCode:  http.StatusNotImplemented,
		Code:        ErrorCodeNotImplemented,
		Description: "direct sign-in is not configured",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many requests",
	}

	ErrNotReady = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeNotReady,
		Description: "service is not ready",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewAPIError creates an APIError with a custom description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
