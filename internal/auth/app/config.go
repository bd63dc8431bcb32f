package app

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
)

type Config struct {
	AccessSecret  string        `env:"AUTH_ACCESS_SECRET"`                 // Required: HS256 secret for access tokens
	RefreshSecret string        `env:"AUTH_REFRESH_SECRET"`                // Required: HS256 secret for refresh tokens, must differ
	AccessTTL     time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"5m"`    // Access token lifetime
	RefreshTTL    time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"` // Refresh token lifetime
	Issuer        string        `env:"AUTH_ISSUER" envDefault:"tgauth"`    // iss claim

	BotToken          string        `env:"TELEGRAM_BOT_TOKEN"`                      // Optional: enables direct sign-in
	BotUsername       string        `env:"TELEGRAM_BOT_USERNAME"`                   // Required: bot handle used in deep links
	BotCallbackSecret string        `env:"AUTH_BOT_CALLBACK_SECRET"`                // Optional: bearer secret the bot presents on complete
	InitDataMaxAge    time.Duration `env:"AUTH_INITDATA_MAX_AGE" envDefault:"24h"`  // 0 disables the auth_date check
	PairingTTL        time.Duration `env:"AUTH_PAIRING_TTL" envDefault:"5m"`        // Handshake deadline
	PairingRetention  time.Duration `env:"AUTH_PAIRING_RETENTION" envDefault:"24h"` // Kept this long past the deadline
	DefaultRoles      []string      `env:"AUTH_DEFAULT_ROLES" envDefault:"user" envSeparator:","`

	PublicURL      string   `env:"AUTH_PUBLIC_URL" envDefault:"http://localhost:8080"` // Base of the continuation URL
	SiteURL        string   `env:"AUTH_SITE_URL" envDefault:"/"`                       // Redirect target after callback
	CookieSecure   bool     `env:"AUTH_COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string   `env:"AUTH_COOKIE_SAMESITE" envDefault:"strict"`
	CookieDomain   string   `env:"AUTH_COOKIE_DOMAIN"`
	CORSOrigins    []string `env:"AUTH_CORS_ORIGINS" envSeparator:","` // Listed origins get credentials; "*" allows any origin without them

	DatabaseDriver string `env:"AUTH_DATABASE_DRIVER" envDefault:"sqlite"` // sqlite or postgres
	DatabaseFile   string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`  // SQLite file
	DatabaseURL    string `env:"AUTH_DATABASE_URL"`                        // Postgres DSN

	Env                  string        `env:"ENV" envDefault:"dev"`                   // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`            // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`           // json, text
	Port                 int           `env:"PORT" envDefault:"8080"`                 // HTTP server port
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"` // Graceful shutdown timeout
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`  // Pairing cleanup interval
}

// botUsernamePattern is a platform handle without the leading "@".
var botUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every misconfiguration at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.AccessSecret == "" || c.RefreshSecret == "":
		errs = append(errs, errors.New("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET are required"))
	case c.AccessSecret == c.RefreshSecret:
		errs = append(errs, errors.New("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET must differ"))
	case len(c.AccessSecret) < jwtx.MinSecretLength || len(c.RefreshSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("token secrets must be at least %d bytes", jwtx.MinSecretLength))
	}

	if !botUsernamePattern.MatchString(strings.TrimPrefix(c.BotUsername, "@")) {
		errs = append(errs, errors.New("TELEGRAM_BOT_USERNAME is required and must be a bot handle"))
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL and AUTH_REFRESH_TTL must be positive"))
	}
	if c.PairingTTL <= 0 {
		errs = append(errs, errors.New("AUTH_PAIRING_TTL must be positive"))
	}
	if c.InitDataMaxAge < 0 {
		errs = append(errs, errors.New("AUTH_INITDATA_MAX_AGE must not be negative"))
	}

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if strings.EqualFold(c.CookieSameSite, "none") && !c.CookieSecure {
		errs = append(errs, errors.New("AUTH_COOKIE_SAMESITE=none requires AUTH_COOKIE_SECURE"))
	}

	return errors.Join(errs...)
}
