package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow refill over Window,
// with at most Burst requests available at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Route profiles. Override with RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_
// {REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards sign-in and handshake creation: 5/min.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards bot completion and authenticated lookups: 20/min.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards polling and health checks: 100/min.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards docs and metrics: 1000/min.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = StrictLimit.FromEnv("STRICT", os.Getenv)
	ModerateLimit = ModerateLimit.FromEnv("MODERATE", os.Getenv)
	LenientLimit = LenientLimit.FromEnv("LENIENT", os.Getenv)
	PublicLimit = PublicLimit.FromEnv("PUBLIC", os.Getenv)
}

// FromEnv returns c with any positive RATELIMIT_<profile>_* values applied.
// Unset, malformed and non-positive values keep the current setting.
func (c RateLimitConfig) FromEnv(profile string, getenv func(string) string) RateLimitConfig {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(getenv("RATELIMIT_" + profile + "_" + field))
		return n, err == nil && n > 0
	}
	if n, ok := positive("REQUESTS"); ok {
		c.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		c.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		c.Burst = n
	}
	return c
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// refill is how long an untouched bucket takes to fill back up.
func (c RateLimitConfig) refill() time.Duration {
	l := c.limit()
	if l == rate.Inf || c.Burst <= 0 {
		return c.Window
	}
	return time.Duration(float64(c.Burst) / float64(l) * float64(time.Second))
}

// KeyFunc groups requests into buckets. An empty key is not limited.
type KeyFunc func(*http.Request) string

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SubjectKey is the authenticated subject, or "" for anonymous requests.
func SubjectKey(r *http.Request) string {
	sub, _ := r.Context().Value(CtxKeySubject).(string)
	return sub
}

// QueryKey keys on a query parameter. Values are pairing tokens, so only a
// fingerprint is kept in the bucket map and in logs.
func QueryKey(name string) KeyFunc {
	return func(r *http.Request) string {
		v := r.URL.Query().Get(name)
		if v == "" {
			return ""
		}
		return cryptox.FingerprintToken(v)[:16]
	}
}

// JoinKeys concatenates the non-empty keys with ":".
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, ":")
	}
}

// Limiter holds one token bucket per key. Buckets idle long enough to have
// refilled are dropped on the next sweep, since a new one is identical.
type Limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLimiter creates a Limiter. now defaults to time.Now.
func NewLimiter(cfg RateLimitConfig, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		cfg:       cfg,
		now:       now,
		buckets:   make(map[string]*bucket),
		lastSweep: now(),
	}
}

// Allow takes a token for key. When none is left it reports how long until
// one will be.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.cfg.limit(), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.seen = now

	if b.lim.AllowN(now, 1) {
		return true, 0
	}
	res := b.lim.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, delay
}

// Len is the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	idle := l.cfg.refill()
	if now.Sub(l.lastSweep) < idle {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) >= idle {
			delete(l.buckets, k)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (l *Limiter) Middleware(key KeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: empty key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			ok, delay := l.Allow(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int((delay+time.Second-1)/time.Second), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", l.cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"route", r.Pattern,
				"retry_after", retryAfter,
			)
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "too many requests",
			})
		})
	}
}

// RateLimit builds a fresh Limiter for one route.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	return NewLimiter(cfg, nil).Middleware(key)
}

func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ClientIP)
}

// RateLimitBySubject limits per subject and client IP; anonymous requests
// fall back to the IP alone. It must run after the session middleware.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, JoinKeys(SubjectKey, ClientIP))
}

// RateLimitByIPAndQuery limits per client IP and query parameter, so one
// browser polling its own session cannot starve another.
func RateLimitByIPAndQuery(cfg RateLimitConfig, name string) Middleware {
	return RateLimit(cfg, JoinKeys(ClientIP, QueryKey(name)))
}
