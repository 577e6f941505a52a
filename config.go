package secauth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/throttle"
	"github.com/velvetcart/secauth/token"
)

// Config carries all engine tuning. Configure once, validate, build.
type Config struct {
	Privacy  PrivacyConfig
	Token    TokenConfig
	Password PasswordConfig
	Throttle ThrottleConfig
	Admin    AdminConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

// PrivacyConfig feeds the field-level encryption codec.
type PrivacyConfig struct {
	// MasterSecret derives the at-rest encryption key. At least 32
	// bytes.
	MasterSecret string
	// Iterations is the key derivation cost. Zero selects the codec
	// default.
	Iterations int
}

// TokenConfig feeds the session token manager.
type TokenConfig struct {
	// Secret is the HS256 signing key. At least 32 bytes.
	Secret []byte
	// TTL is the session lifetime. Zero selects one hour.
	TTL time.Duration
	// Issuer is stamped into every token when set.
	Issuer string
	// Leeway is the clock skew tolerance during validation.
	Leeway time.Duration
}

// PasswordConfig feeds the hasher and lifecycle policy.
type PasswordConfig struct {
	// BcryptCost is the hashing cost. Zero selects the hasher default.
	BcryptCost int
	// MinLength and MaxLength bound accepted passwords.
	MinLength int
	MaxLength int
	// HistoryCount is how many retired hashes block reuse.
	HistoryCount int
	// ExpiryDays is the password lifetime in days.
	ExpiryDays int
}

// ThrottleConfig feeds the brute-force limiter.
type ThrottleConfig struct {
	MaxAttempts int64
	Window      time.Duration
	Lockout     time.Duration
}

// AdminConfig holds the bootstrap administrator credentials. On the
// first admin login matching this pair, a persisted admin record is
// created; afterwards the stored record is authoritative.
type AdminConfig struct {
	Email    string
	Password string
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds the deployment posture switches.
type SecurityConfig struct {
	// ProductionMode tightens Validate: secrets become mandatory and
	// secure cookies plus CSRF protection cannot be switched off.
	ProductionMode       bool
	RequireSecureCookies bool
	CSRFProtection       bool
}

func defaultConfig() Config {
	return Config{
		Privacy: PrivacyConfig{
			Iterations: privacy.DefaultIterations,
		},
		Token: TokenConfig{
			TTL: token.DefaultTTL,
		},
		Password: PasswordConfig{
			MinLength:    8,
			MaxLength:    128,
			HistoryCount: 5,
			ExpiryDays:   90,
		},
		Throttle: ThrottleConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			Lockout:     15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			RequireSecureCookies: false,
			CSRFProtection:       true,
		},
	}
}

// Validate checks the configuration for internal consistency. In
// production mode weak or missing secrets are rejected rather than
// defaulted.
func (c *Config) Validate() error {
	if len(c.Privacy.MasterSecret) < 32 {
		return errors.New("Privacy MasterSecret must be at least 32 bytes")
	}
	if c.Privacy.Iterations < 0 {
		return errors.New("Privacy Iterations must be >= 0")
	}

	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.TTL < 0 {
		return errors.New("Token TTL must be >= 0")
	}

	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}
	if c.Password.HistoryCount < 0 {
		return errors.New("Password HistoryCount must be >= 0")
	}
	if c.Password.ExpiryDays <= 0 {
		return errors.New("Password ExpiryDays must be > 0")
	}

	if c.Throttle.MaxAttempts <= 0 {
		return errors.New("Throttle MaxAttempts must be > 0")
	}
	if c.Throttle.Window <= 0 || c.Throttle.Lockout <= 0 {
		return errors.New("Throttle Window and Lockout must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Security.ProductionMode {
		if !c.Security.RequireSecureCookies {
			return errors.New("production mode requires secure cookies")
		}
		if !c.Security.CSRFProtection {
			return errors.New("production mode requires CSRF protection")
		}
		if c.Admin.Email != "" && c.Admin.Password == "" {
			return errors.New("admin bootstrap email set without password")
		}
	}

	return nil
}

// FromEnv returns the default configuration overlaid with SECAUTH_*
// environment variables. Missing variables leave defaults in place;
// Validate decides whether the result is usable.
func FromEnv() Config {
	cfg := defaultConfig()

	if v := os.Getenv("SECAUTH_MASTER_SECRET"); v != "" {
		cfg.Privacy.MasterSecret = v
	}
	if v := os.Getenv("SECAUTH_TOKEN_SECRET"); v != "" {
		cfg.Token.Secret = []byte(v)
	}
	if v := os.Getenv("SECAUTH_TOKEN_ISSUER"); v != "" {
		cfg.Token.Issuer = v
	}
	if v := os.Getenv("SECAUTH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Token.TTL = d
		}
	}
	if v := os.Getenv("SECAUTH_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Password.BcryptCost = n
		}
	}
	if v := os.Getenv("SECAUTH_PASSWORD_EXPIRY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Password.ExpiryDays = n
		}
	}
	if v := os.Getenv("SECAUTH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Throttle.MaxAttempts = n
		}
	}
	if v := os.Getenv("SECAUTH_ATTEMPT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Throttle.Window = d
		}
	}
	if v := os.Getenv("SECAUTH_LOCKOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Throttle.Lockout = d
		}
	}
	if v := os.Getenv("SECAUTH_ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("SECAUTH_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
	if v := os.Getenv("SECAUTH_PRODUCTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			cfg.Security.ProductionMode = true
			cfg.Security.RequireSecureCookies = true
			cfg.Security.CSRFProtection = true
		}
	}
	if v := os.Getenv("SECAUTH_AUDIT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if v := os.Getenv("SECAUTH_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}

	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = append([]byte(nil), cfg.Token.Secret...)
	return out
}

// throttleConfig maps the engine view onto the limiter package view.
func (c *Config) throttleConfig() throttle.Config {
	return throttle.Config{
		MaxAttempts: c.Throttle.MaxAttempts,
		Window:      c.Throttle.Window,
		Lockout:     c.Throttle.Lockout,
	}
}
