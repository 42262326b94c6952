package trybeauth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Config is the complete Engine configuration. It is copied at Build and
// treated as immutable afterwards.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Account  AccountConfig
	Gate     GateConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the HS256 signing secret and token lifetimes.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls registration defaults.
type AccountConfig struct {
	// DefaultRole is assigned when a registration names no role.
	DefaultRole Role
}

/*
====================================
GATE CONFIG
====================================
*/

// Endpoint is an exact method and path pair.
type Endpoint struct {
	Method string
	Path   string
}

// GateConfig holds the static route tables consulted by Authenticate.
//
// Excluded endpoints always pass. Paths that start with none of the Protected
// prefixes also pass. Everything else needs a bearer token.
type GateConfig struct {
	Excluded           []Endpoint
	Protected          []string
	RotatedTokenHeader string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults with no signing secret. The
// caller must set JWT.Secret before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  2 * time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "trybeauth",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Gate: GateConfig{
			Excluded: []Endpoint{
				{Method: http.MethodPost, Path: "/v1/auth/login"},
				{Method: http.MethodPost, Path: "/v1/auth/register"},
				{Method: http.MethodPost, Path: "/v1/auth/refresh-token"},
			},
			Protected: []string{
				"/v1/users/me",
				"/v1/auth/logout",
			},
			RotatedTokenHeader: "x-access-token",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.Gate.Excluded = append([]Endpoint(nil), cfg.Gate.Excluded...)
	out.Gate.Protected = append([]string(nil), cfg.Gate.Protected...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found. A missing JWT
// secret yields ErrSigningKeyMissing.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return ErrSigningKeyMissing
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 || c.Password.Parallelism < 1 {
		return errors.New("Password Time and Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 || c.Password.KeyLength < 16 {
		return errors.New("Password SaltLength and KeyLength must be >= 16")
	}

	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole must be user, admin or super_admin")
	}

	for _, ep := range c.Gate.Excluded {
		if ep.Method == "" || !strings.HasPrefix(ep.Path, "/") {
			return errors.New("Gate Excluded entries need a method and an absolute path")
		}
	}
	for _, prefix := range c.Gate.Protected {
		if !strings.HasPrefix(prefix, "/") {
			return errors.New("Gate Protected prefixes must be absolute paths")
		}
	}
	if strings.TrimSpace(c.Gate.RotatedTokenHeader) == "" {
		return errors.New("Gate RotatedTokenHeader must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
