package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound     = errors.New("session_not_found")
	ErrSessionNotPending   = errors.New("session_not_pending")
	ErrSessionExpired      = errors.New("session_expired")
	ErrSessionNotCompleted = errors.New("session_not_completed")
	ErrInvalidIdentity     = errors.New("invalid_identity")
	ErrProfileNotFound     = errors.New("profile_not_found")

	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrMalformedAssertion = errors.New("malformed_assertion")
	ErrAssertionExpired   = errors.New("assertion_expired")
	ErrSignInDisabled     = errors.New("signin_disabled")

	// ErrInvalidCredential means "authenticate again"; it is never retryable.
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrUnauthorized      = errors.New("unauthorized")
)

// UpstreamError wraps a failure of a collaborator (store, profile
// resolver, signer). It is the only error adapters report as 5xx.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

var outcomes = []error{
	ErrSessionNotFound, ErrSessionNotPending, ErrSessionExpired, ErrSessionNotCompleted,
	ErrInvalidIdentity, ErrInvalidSignature, ErrMalformedAssertion, ErrAssertionExpired,
	ErrSignInDisabled, ErrInvalidCredential, ErrUnauthorized,
}

// outcome is the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if IsUpstream(err) {
		return "upstream_error"
	}
	for _, known := range outcomes {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "error"
}
