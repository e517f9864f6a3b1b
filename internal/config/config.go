// Package config defines the server configuration and how it is loaded.
//
// Values layer, lowest precedence first: defaults from New, an optional
// YAML file named by SQUAD_CONFIG, then SQUAD_* environment variables.
// A .env file in the working directory is read into the environment first.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"squad/internal/domain/access"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config contains process configuration.
type Config struct {
	// Env is development, test or production. Production refuses to start
	// without a CSRF key and never loads demo data.
	Env string `koanf:"env"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BaseURL is the absolute site root used in emailed links.
	BaseURL string `koanf:"base_url"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// LogLevel is debug, info, warn or error. LogFormat is json or console.
	// LogOutput is stdout, stderr or a file path.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	LogOutput string `koanf:"log_output"`

	// CSRFKey is the hex encoded 32-byte gorilla/csrf authentication key.
	CSRFKey string `koanf:"csrf_key"`

	// TrustedOrigins and CORSOrigins are comma separated.
	TrustedOrigins string `koanf:"trusted_origins"`
	CORSOrigins    string `koanf:"cors_origins"`

	// SessionTTL bounds how long a login stays valid.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// AdminEmail and AdminPassword seed the first admin user on an empty database.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	// SeedDemo loads the demo roster into an empty database outside production.
	SeedDemo bool `koanf:"seed_demo"`

	// NATSURL enables cross-instance cache invalidation when set.
	NATSURL     string        `koanf:"nats_url"`
	CacheMaxAge time.Duration `koanf:"cache_max_age"`

	SlowQueryMS   int `koanf:"slow_query_ms"`
	SlowRequestMS int `koanf:"slow_request_ms"`

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit int `koanf:"rate_limit"`

	// ResendKey enables email delivery through Resend. Without it emails are
	// logged and dropped.
	ResendKey string `koanf:"resend_key"`
	EmailFrom string `koanf:"email_from"`

	// Policy maps role -> resource -> operations. Empty means the built-in policy.
	Policy map[string]map[string][]string `koanf:"policy"`
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		Env:           EnvDevelopment,
		Addr:          ":8080",
		BaseURL:       "http://localhost:8080",
		DBPath:        "squad.db",
		LogLevel:      "info",
		LogFormat:     "json",
		LogOutput:     "stdout",
		SessionTTL:    24 * time.Hour,
		SeedDemo:      true,
		CacheMaxAge:   5 * time.Minute,
		SlowQueryMS:   100,
		SlowRequestMS: 500,
		EmailFrom:     "Squad <noreply@squad.local>",
	}
}

// IsProduction reports whether Env is production.
func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Validate rejects values the server cannot start with.
// POST: a non-nil error wraps ErrInvalidConfig
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if c.DBPath == "" {
		return invalid("db_path must not be empty")
	}
	if !slices.Contains([]string{EnvDevelopment, EnvTest, EnvProduction}, c.Env) {
		return invalid("env must be one of development, test, production; got %q", c.Env)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return invalid("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return invalid("log_format must be json or console; got %q", c.LogFormat)
	}
	if c.IsProduction() && c.CSRFKey == "" {
		return invalid("csrf_key is required in production")
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			return invalid("csrf_key must be 64 hex characters")
		}
	}
	if c.SessionTTL <= 0 {
		return invalid("session_ttl must be positive")
	}
	if c.CacheMaxAge < 0 || c.SlowQueryMS < 0 || c.SlowRequestMS < 0 || c.RateLimit < 0 {
		return invalid("cache_max_age, slow_query_ms, slow_request_ms and rate_limit must not be negative")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return invalid("admin_email and admin_password must be set together")
	}
	if _, err := c.AccessPolicy(); err != nil {
		return invalid("policy: %v", err)
	}
	return nil
}

// AccessPolicy returns the configured role policy, or the built-in one.
func (c *Config) AccessPolicy() (access.Policy, error) {
	if len(c.Policy) == 0 {
		return access.DefaultPolicy(), nil
	}
	return access.ParsePolicy(c.Policy)
}

// CSRFKeyBytes decodes CSRFKey. Outside production an empty key yields a
// random per-process key, so forms stop validating across restarts.
// PRE: Validate passed
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey != "" {
		return hex.DecodeString(c.CSRFKey)
	}
	if c.IsProduction() {
		return nil, invalid("csrf_key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	return key, nil
}

// CORSOriginList splits CORSOrigins.
func (c *Config) CORSOriginList() []string { return splitList(c.CORSOrigins) }

// TrustedOriginList splits TrustedOrigins.
func (c *Config) TrustedOriginList() []string { return splitList(c.TrustedOrigins) }

// SlowQuery is SlowQueryMS as a duration.
func (c *Config) SlowQuery() time.Duration { return time.Duration(c.SlowQueryMS) * time.Millisecond }

// SlowRequest is SlowRequestMS as a duration.
func (c *Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
