package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Token string `json:"token"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		require.NoError(t, httpx.DecodeJSON(req, &body))
		require.Equal(t, "abc", body.Token)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`token=abc`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.ErrorIs(t, httpx.DecodeJSON(req, &body), httpx.ErrUnsupportedMediaType)
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":`))
		require.Error(t, httpx.DecodeJSON(req, &body))
	})

	t.Run("two objects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"a"}{"token":"b"}`))
		require.Error(t, httpx.DecodeJSON(req, &body))
	})
}

func TestCORS(t *testing.T) {
	h := httpx.CORS(httpx.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAgeSeconds: 600})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
		require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := httpx.CORS(httpx.CORSConfig{AllowedOrigins: []string{"*", "https://app.example.com"}})(okHandler())

	serve := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("https://evil.example.com")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "arbitrary origins are never echoed")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = serve("https://app.example.com")
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCredentialCookies(t *testing.T) {
	cfg := httpx.CookieConfig{Secure: true, SameSite: httpx.ParseSameSite("strict"), MaxAge: 7 * 24 * time.Hour}

	rec := httptest.NewRecorder()
	httpx.SetCredentialCookies(rec, cfg, "access-value", "refresh-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
		require.Equal(t, "/", c.Path)
		require.Equal(t, 604800, c.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	access, refresh := httpx.CredentialsFromRequest(req)
	require.Equal(t, "access-value", access)
	require.Equal(t, "refresh-value", refresh)

	t.Run("header fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-access")
		req.Header.Set("X-Refresh-Token", "header-refresh")
		access, refresh := httpx.CredentialsFromRequest(req)
		require.Equal(t, "header-access", access)
		require.Equal(t, "header-refresh", refresh)
	})

	t.Run("clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.ClearCredentialCookies(rec, cfg)
		for _, c := range rec.Result().Cookies() {
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	})
}

func TestParseSameSite(t *testing.T) {
	require.Equal(t, http.SameSiteLaxMode, httpx.ParseSameSite("Lax"))
	require.Equal(t, http.SameSiteNoneMode, httpx.ParseSameSite("none"))
	require.Equal(t, http.SameSiteStrictMode, httpx.ParseSameSite("bogus"))
}

func TestRequireAnyRole(t *testing.T) {
	h := httpx.RequireAnyRole("admin")(okHandler())

	t.Run("no claims", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		claims := jwtx.NewClaims("sub", 1, []string{"user"}, time.Minute, "", time.Now())
		req = req.WithContext(httpx.ContextWithClaims(req.Context(), claims))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		claims := jwtx.NewClaims("sub", 1, []string{"user", "admin"}, time.Minute, "", time.Now())
		req = req.WithContext(httpx.ContextWithClaims(req.Context(), claims))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		got, ok := httpx.ClaimsFromContext(req.Context())
		require.True(t, ok)
		require.Equal(t, "sub", got.Subject)
	})
}

func TestRequireBearerSecret(t *testing.T) {
	h := httpx.RequireBearerSecret("bot-secret", cryptox.EqualStrings)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	req.Header.Set("Authorization", "bearer bot-secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	open := httpx.RequireBearerSecret("", cryptox.EqualStrings)(okHandler())
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
