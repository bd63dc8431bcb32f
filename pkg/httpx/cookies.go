package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Cookie names for the two halves of a credential pair.
const (
	AccessCookieName  = "ACCESS_TOKEN"
	RefreshCookieName = "REFRESH_TOKEN"
)

// CookieConfig describes how credential cookies are written.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	// MaxAge applies to both cookies. It matches the refresh lifetime so
	// the refresh half survives the access half's expiry.
	MaxAge time.Duration
}

// ParseSameSite maps "strict", "lax" and "none" onto http.SameSite.
// Anything else yields strict.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// SetCredentialCookies writes both halves of a pair.
func SetCredentialCookies(w http.ResponseWriter, cfg CookieConfig, access, refresh string) {
	http.SetCookie(w, cfg.cookie(AccessCookieName, access, int(cfg.MaxAge.Seconds())))
	http.SetCookie(w, cfg.cookie(RefreshCookieName, refresh, int(cfg.MaxAge.Seconds())))
}

// ClearCredentialCookies expires both cookies.
func ClearCredentialCookies(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, cfg.cookie(AccessCookieName, "", -1))
	http.SetCookie(w, cfg.cookie(RefreshCookieName, "", -1))
}

// CredentialsFromRequest reads the pair from cookies, falling back to an
// Authorization bearer header and an X-Refresh-Token header for clients
// that cannot hold cookies.
func CredentialsFromRequest(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(AccessCookieName); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		refresh = c.Value
	}
	if access == "" {
		access = BearerToken(r)
	}
	if refresh == "" {
		refresh = strings.TrimSpace(r.Header.Get("X-Refresh-Token"))
	}
	return access, refresh
}

func (cfg CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
