package trybeauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment-variable surface of Config.
type EnvConfig struct {
	JWTSecret      string        `env:"TRYBE_JWT_SECRET"`
	AccessTTL      time.Duration `env:"TRYBE_ACCESS_TTL" envDefault:"2h"`
	RefreshTTL     time.Duration `env:"TRYBE_REFRESH_TTL" envDefault:"720h"`
	Issuer         string        `env:"TRYBE_JWT_ISSUER" envDefault:"trybeauth"`
	Leeway         time.Duration `env:"TRYBE_JWT_LEEWAY" envDefault:"0s"`
	DefaultRole    string        `env:"TRYBE_DEFAULT_ROLE" envDefault:"user"`
	AuditEnabled   bool          `env:"TRYBE_AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled bool          `env:"TRYBE_METRICS_ENABLED" envDefault:"true"`
	LatencyMetrics bool          `env:"TRYBE_METRICS_LATENCY" envDefault:"false"`
}

// LoadConfigFromEnv builds a validated Config from TRYBE_* environment
// variables on top of DefaultConfig.
func LoadConfigFromEnv() (Config, error) {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}
	cfg := ec.Apply(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply overlays the environment values onto cfg.
func (ec EnvConfig) Apply(cfg Config) Config {
	if ec.JWTSecret != "" {
		cfg.JWT.Secret = []byte(ec.JWTSecret)
	}
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	cfg.JWT.Issuer = ec.Issuer
	cfg.JWT.Leeway = ec.Leeway
	cfg.Account.DefaultRole = Role(ec.DefaultRole)
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Metrics.Enabled = ec.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = ec.LatencyMetrics
	return cfg
}
