package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
)

const readyzPingTimeout = 2 * time.Second

var errIssuerMissing = errors.New("issuer not configured")

// readinessSubject is minted and verified on every readiness check. It is never
// stored and never leaves the process.
var readinessSubject = service.Subject{ID: "readyz-check", TelegramID: 1}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Pings the database and round-trips a throwaway credential through the issuer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"every check ok"
//	@Failure		503	{object}	authsdk.HealthResponse	"at least one check failed"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	issuer *service.CredentialIssuer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzPingTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: checkResult(st.Ping(ctx)),
			Issuer:   checkResult(checkIssuer(issuer)),
		}

		res := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		status := http.StatusOK
		if checks.Database != "ok" || checks.Issuer != "ok" {
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		httpx.NoCache(w)
		httpx.WriteJSON(w, status, res)
	}
}

func checkIssuer(issuer *service.CredentialIssuer) error {
	if issuer == nil {
		return errIssuerMissing
	}
	pair, err := issuer.Mint(readinessSubject)
	if err != nil {
		return err
	}
	_, err = issuer.VerifyAccess(pair.AccessToken)
	return err
}

func checkResult(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
