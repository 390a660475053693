package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	FrontendURL string   `env:"FRONTEND_URL, default=http://localhost:5173/"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	Token     TokenConfig
	OTP       OTPConfig
	Reset     ResetConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Mail      MailConfig
}

type TokenConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	Issuer        string        `env:"TOKEN_ISSUER,      default=taskboard"`
	MaxSessions   int           `env:"MAX_SESSIONS,      default=10"`
}

type OTPConfig struct {
	Digits               int           `env:"OTP_DIGITS,             default=4"`
	TTL                  time.Duration `env:"OTP_TTL,                default=1m"`
	MaxResends           int           `env:"OTP_MAX_RESENDS,        default=3"`
	MaxAttempts          int           `env:"OTP_MAX_ATTEMPTS,       default=5"`
	Retention            time.Duration `env:"OTP_RETENTION,          default=24h"`
	VerifiedEmailTTL     time.Duration `env:"VERIFIED_EMAIL_TTL,     default=15m"`
	RequireVerifiedEmail bool          `env:"REQUIRE_VERIFIED_EMAIL, default=true"`
}

type ResetConfig struct {
	TTL time.Duration `env:"RESET_TOKEN_TTL, default=1h"`
}

type CookieConfig struct {
	Secure   bool   `env:"COOKIE_SECURE,   default=true"`
	SameSite string `env:"COOKIE_SAMESITE, default=none"`
}

// RateLimitConfig tunes the per-IP throttle. TrustProxy is set only behind a
// reverse proxy that overwrites X-Real-IP.
type RateLimitConfig struct {
	PerSecond  float64 `env:"RATE_LIMIT_PER_SECOND, default=1"`
	Burst      int     `env:"RATE_LIMIT_BURST,      default=5"`
	TrustProxy bool    `env:"TRUST_PROXY,           default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskboard"`
}

type RedisConfig struct {
	Addr          string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password      string `env:"REDIS_PASSWORD"`
	DB            int    `env:"REDIS_DB,       default=0"`
	EventsChannel string `env:"EVENTS_CHANNEL, default=taskboard:events"`
}

type MailConfig struct {
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT,    default=587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	From         string        `env:"MAIL_FROM"`
	Timeout      time.Duration `env:"MAIL_TIMEOUT, default=10s"`
	Workers      int           `env:"MAIL_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.Token.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Token.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Token.AccessSecret != "" && c.Token.AccessSecret == c.Token.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 6 {
		errs = append(errs, fmt.Errorf("OTP_DIGITS must be between 4 and 6, got %d", c.OTP.Digits))
	}
	if _, err := c.Cookie.SameSiteMode(); err != nil {
		errs = append(errs, err)
	}
	if mode, _ := c.Cookie.SameSiteMode(); mode == http.SameSiteNoneMode && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}
	return errors.Join(errs...)
}

// SameSiteMode parses COOKIE_SAMESITE.
func (c CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAMESITE must be none, lax or strict, got %q", c.SameSite)
	}
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
