package secauth

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid baseline",
			mutate: func(c *Config) {},
		},
		{
			name:    "short master secret",
			mutate:  func(c *Config) { c.Privacy.MasterSecret = "too-short" },
			wantErr: true,
		},
		{
			name:    "short token secret",
			mutate:  func(c *Config) { c.Token.Secret = []byte("short") },
			wantErr: true,
		},
		{
			name:    "min length below floor",
			mutate:  func(c *Config) { c.Password.MinLength = 6 },
			wantErr: true,
		},
		{
			name: "max below min",
			mutate: func(c *Config) {
				c.Password.MinLength = 20
				c.Password.MaxLength = 10
			},
			wantErr: true,
		},
		{
			name:    "zero expiry",
			mutate:  func(c *Config) { c.Password.ExpiryDays = 0 },
			wantErr: true,
		},
		{
			name:    "zero throttle attempts",
			mutate:  func(c *Config) { c.Throttle.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantErr: true,
		},
		{
			name: "production requires secure cookies",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Security.RequireSecureCookies = false
				c.Security.CSRFProtection = true
			},
			wantErr: true,
		},
		{
			name: "production requires csrf",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Security.RequireSecureCookies = true
				c.Security.CSRFProtection = false
			},
			wantErr: true,
		},
		{
			name: "production admin email without password",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Security.RequireSecureCookies = true
				c.Security.CSRFProtection = true
				c.Admin.Email = "root@example.com"
			},
			wantErr: true,
		},
		{
			name: "production fully specified",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Security.RequireSecureCookies = true
				c.Security.CSRFProtection = true
				c.Admin.Email = "root@example.com"
				c.Admin.Password = "R00t!Passw0rd"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestFromEnvOverlaysDefaults(t *testing.T) {
	t.Setenv("SECAUTH_MASTER_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SECAUTH_TOKEN_SECRET", "fedcba9876543210fedcba9876543210")
	t.Setenv("SECAUTH_TOKEN_ISSUER", "velvetcart")
	t.Setenv("SECAUTH_TOKEN_TTL", "30m")
	t.Setenv("SECAUTH_ADMIN_EMAIL", "root@example.com")
	t.Setenv("SECAUTH_ADMIN_PASSWORD", "R00t!Passw0rd")
	t.Setenv("SECAUTH_PRODUCTION", "true")
	t.Setenv("SECAUTH_METRICS", "true")
	t.Setenv("SECAUTH_PASSWORD_EXPIRY_DAYS", "60")
	t.Setenv("SECAUTH_MAX_ATTEMPTS", "3")
	t.Setenv("SECAUTH_ATTEMPT_WINDOW", "10m")
	t.Setenv("SECAUTH_LOCKOUT", "20m")

	cfg := FromEnv()

	if cfg.Privacy.MasterSecret != "0123456789abcdef0123456789abcdef" {
		t.Errorf("MasterSecret not read from env")
	}
	if string(cfg.Token.Secret) != "fedcba9876543210fedcba9876543210" {
		t.Errorf("Token secret not read from env")
	}
	if cfg.Token.Issuer != "velvetcart" {
		t.Errorf("Issuer = %q", cfg.Token.Issuer)
	}
	if cfg.Token.TTL != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", cfg.Token.TTL)
	}
	if cfg.Admin.Email != "root@example.com" || cfg.Admin.Password != "R00t!Passw0rd" {
		t.Error("admin bootstrap credentials not read from env")
	}
	if !cfg.Security.ProductionMode || !cfg.Security.RequireSecureCookies || !cfg.Security.CSRFProtection {
		t.Error("production mode must force the secure posture")
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics flag not read from env")
	}

	if cfg.Password.ExpiryDays != 60 {
		t.Errorf("ExpiryDays = %d, want 60", cfg.Password.ExpiryDays)
	}
	if cfg.Throttle.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Throttle.MaxAttempts)
	}
	if cfg.Throttle.Window != 10*time.Minute {
		t.Errorf("Window = %v, want 10m", cfg.Throttle.Window)
	}
	if cfg.Throttle.Lockout != 20*time.Minute {
		t.Errorf("Lockout = %v, want 20m", cfg.Throttle.Lockout)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after FromEnv: %v", err)
	}

	// Defaults survive where the environment is silent.
	if cfg.Password.MinLength != 8 || cfg.Password.HistoryCount != 5 {
		t.Error("password defaults lost during overlay")
	}
	if cfg.Audit.BufferSize != 1024 {
		t.Error("audit defaults lost during overlay")
	}
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SECAUTH_TOKEN_TTL", "not-a-duration")
	t.Setenv("SECAUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("SECAUTH_MAX_ATTEMPTS", "many")
	t.Setenv("SECAUTH_ATTEMPT_WINDOW", "soon")
	t.Setenv("SECAUTH_PRODUCTION", "not-a-bool")

	cfg := FromEnv()
	if cfg.Token.TTL != time.Hour {
		t.Errorf("TTL = %v, want the default hour", cfg.Token.TTL)
	}
	if cfg.Password.BcryptCost != 0 {
		t.Errorf("BcryptCost = %d, want 0", cfg.Password.BcryptCost)
	}
	if cfg.Throttle.MaxAttempts != 5 || cfg.Throttle.Window != 15*time.Minute {
		t.Error("malformed throttle values must leave defaults in place")
	}
	if cfg.Security.ProductionMode {
		t.Error("malformed production flag must not enable production mode")
	}
}

func TestCloneConfigIsolatesTokenSecret(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)
	clone.Token.Secret[0] ^= 0xff
	if cfg.Token.Secret[0] == clone.Token.Secret[0] {
		t.Fatal("clone shares the token secret backing array")
	}
}
