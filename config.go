package authgate

import (
	"errors"
	"time"
)

// Default token lifetimes, applied when the corresponding config field is
// zero.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// JWTConfig holds the signing secret and token lifetimes.
type JWTConfig struct {
	// Secret signs and verifies every token. Minimum 32 bytes.
	Secret []byte
	// AccessTTL is the access-token lifetime. Zero selects
	// [DefaultAccessTTL].
	AccessTTL time.Duration
	// RefreshTTL is the refresh-token lifetime. Zero selects
	// [DefaultRefreshTTL]. Must not be shorter than AccessTTL.
	RefreshTTL time.Duration
}

// AuditConfig controls asynchronous audit event delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit discard events instead of blocking when the
	// buffer is full. Dropped events are counted and reported via
	// [Gate.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// Config is the root gate configuration. Copy semantics; Build clones it
// so later mutation by the caller has no effect.
type Config struct {
	JWT     JWTConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// DefaultConfig returns a config with standard lifetimes and audit and
// metrics enabled. The secret must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  DefaultAccessTTL,
			RefreshTTL: DefaultRefreshTTL,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("refresh lifetime must not be shorter than access lifetime")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = DefaultAccessTTL
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = DefaultRefreshTTL
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = 256
	}
}

func cloneConfig(c Config) Config {
	clone := c
	clone.JWT.Secret = append([]byte(nil), c.JWT.Secret...)
	return clone
}
