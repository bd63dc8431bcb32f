package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"

	_ "github.com/bonechkabonechka/tgauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	metrics      *metrics.Metrics

	Issuer           *service.CredentialIssuer
	HandshakeService *service.HandshakeService
	SignInService    *service.SignInService
	SessionGuard     *service.SessionGuard
	ProfileService   *service.ProfileService

	// Cookies controls how credential cookies are written.
	Cookies httpx.CookieConfig
	// BotSecret is the bearer secret the bot presents on completion. Empty
	// leaves the endpoint open.
	BotSecret string
	// SiteURL is where the browser callback redirects to.
	SiteURL string
	CORS    httpx.CORSConfig
}

func NewRouter(
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
		SiteURL:      "/",
	}
}

// ApplyRoutes registers every route. It must be called once, after the
// service fields are set and before the router serves.
func (r *Router) ApplyRoutes() {
	r.registerHandshake()
	r.registerSignIn()
	r.registerSession()
	r.registerProfiles()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// Outermost first. Instrument sits directly on the mux so it can read
	// the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(r.CORS),
	}
	r.handler = httpx.Chain(r.metrics.Instrument(r.Mux), r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			tgauth Telegram Sign-in Service API
//	@version		0.1.0
//	@description	Signs users in through a Telegram bot. Browsers pair with the bot through a short lived
//	@description	handshake; Mini Apps exchange signed initData directly.
//	@description
//	@description				Credentials are a pair of HS256 JWTs delivered as JSON or as HttpOnly cookies.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	BotSecret
//	@in							header
//	@name						Authorization
//	@description				Bot callback secret. Format: "Bearer {secret}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerHandshake() {
	h := &HandshakeHandler{HandshakeService: r.HandshakeService}
	cb := &CallbackHandler{
		HandshakeService: r.HandshakeService,
		Cookies:          r.Cookies,
		SiteURL:          r.SiteURL,
	}

	// POST /handshake - strict rate limit by IP (creates server state)
	r.Mux.Handle("POST /v1/auth/handshake",
		httpx.Chain(http.HandlerFunc(h.HandleBegin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /handshake/complete - bot only, moderate limit. The limiter runs
	// first so failed secret guesses are throttled too.
	r.Mux.Handle("POST /v1/auth/handshake/complete",
		httpx.Chain(http.HandlerFunc(h.HandleComplete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RequireBearerSecret(r.BotSecret, cryptox.EqualStrings),
		),
	)

	// GET /handshake - polled every couple of seconds, limited per token
	r.Mux.Handle("GET /v1/auth/handshake",
		httpx.Chain(http.HandlerFunc(h.HandlePoll),
			httpx.RateLimitByIPAndQuery(httpx.LenientLimit, "token"),
		),
	)

	r.Mux.Handle("GET /v1/auth/callback",
		httpx.Chain(cb,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSignIn() {
	h := &SignInHandler{SignInService: r.SignInService, Cookies: r.Cookies}

	// POST /signin - strict rate limit by IP (signature checks)
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSession() {
	me := &MeHandler{ProfileService: r.ProfileService}
	logout := &LogoutHandler{Cookies: r.Cookies}

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(me,
			SessionMiddleware(r.SessionGuard, r.Cookies),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfiles() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	// GET /profiles/{id} - admin lookup
	r.Mux.Handle("GET /v1/profiles/{id}",
		httpx.Chain(h,
			SessionMiddleware(r.SessionGuard, r.Cookies),
			httpx.RequireAnyRole("admin"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Issuer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(r.metrics.Handler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
