package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/memory"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/sqlite"
)

const testBotToken = "123456:TEST-bot-token"

var (
	testAccessSecret  = []byte(strings.Repeat("a", 32))
	testRefreshSecret = []byte(strings.Repeat("r", 32))
)

// virtualClock is a manually advanced clock.
type virtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newVirtualClock() *virtualClock {
	return &virtualClock{now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	clock     *virtualClock
	store     store.Store
	registry  *prometheus.Registry
	issuer    *CredentialIssuer
	profiles  *ProfileService
	handshake *HandshakeService
	signIn    *SignInService
	guard     *SessionGuard
}

func newHarness(t *testing.T, st store.Store) *harness {
	t.Helper()
	t.Cleanup(func() { _ = st.Close() })

	clock := newVirtualClock()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	issuer, err := NewCredentialIssuer(IssuerOptions{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "tgauth",
		Now:           clock.Now,
	})
	require.NoError(t, err)

	profiles := &ProfileService{Store: st, Now: clock.Now}

	return &harness{
		clock:    clock,
		store:    st,
		registry: reg,
		issuer:   issuer,
		profiles: profiles,
		handshake: &HandshakeService{
			Store:       st,
			Issuer:      issuer,
			Profiles:    profiles,
			Metrics:     m,
			BotUsername: "tgauth_bot",
			PublicURL:   "https://auth.example.com/",
			TTL:         5 * time.Minute,
			Now:         clock.Now,
		},
		signIn: &SignInService{
			Store:    st,
			Issuer:   issuer,
			Profiles: profiles,
			Metrics:  m,
			BotToken: testBotToken,
			MaxAge:   24 * time.Hour,
			Now:      clock.Now,
		},
		guard: &SessionGuard{Issuer: issuer, Metrics: m},
	}
}

func newMemoryHarness(t *testing.T) *harness {
	return newHarness(t, memory.New())
}

func newSQLiteHarness(t *testing.T) *harness {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	return newHarness(t, st)
}

// forEachStore runs fn against every driver that needs no external service.
func forEachStore(t *testing.T, fn func(t *testing.T, h *harness)) {
	t.Run("memory", func(t *testing.T) { fn(t, newMemoryHarness(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteHarness(t)) })
}
