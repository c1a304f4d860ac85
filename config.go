package account

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Config is the explicit startup configuration. Everything comes from
// the environment once, at boot; nothing reads the environment after
// LoadConfig returns.
type Config struct {
	JWTSecret         string `env:"JWT_SECRET,required"`
	CookieMaxAgeHours int    `env:"MAX_AGE_COOKIE,required"`
	DatabaseDSN       string `env:"DATABASE_URL" envDefault:"file:account.db?cache=shared&mode=rwc"`
	ListenAddr        string `env:"LISTEN_ADDR" envDefault:":8080"`
	TokenIssuer       string `env:"TOKEN_ISSUER" envDefault:"account"`
	Debug             bool   `env:"DEBUG" envDefault:"false"`
}

// LoadConfig reads and validates the environment. A missing or invalid
// value fails startup; there are no runtime fallbacks.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load configuration from environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks constraints env tags cannot express
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty", errors.CategoryBadInput)
	}

	if c.CookieMaxAgeHours <= 0 {
		return errors.New("MAX_AGE_COOKIE must be a positive number of hours", errors.CategoryBadInput)
	}

	return nil
}

// CookieDuration returns the configured auth cookie lifetime
func (c *Config) CookieDuration() time.Duration {
	return time.Duration(c.CookieMaxAgeHours) * time.Hour
}

// GetSigningKey returns the token signing secret
func (c *Config) GetSigningKey() string {
	return c.JWTSecret
}

// GetIssuer returns the token issuer
func (c *Config) GetIssuer() string {
	return c.TokenIssuer
}
