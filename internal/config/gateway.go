package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvGatewayMaxAttempts = "TOSGUARD_GATEWAY_MAX_ATTEMPTS"
	EnvGatewayBackoffBase = "TOSGUARD_GATEWAY_BACKOFF_BASE"
	EnvGatewayBackoffMax  = "TOSGUARD_GATEWAY_BACKOFF_MAX"
	EnvGatewayCallTimeout = "TOSGUARD_GATEWAY_CALL_TIMEOUT"
)

// GatewayConfig holds retry and timeout settings for model calls.
type GatewayConfig struct {
	MaxAttempts int    `toml:"max_attempts"`
	BackoffBase string `toml:"backoff_base"`
	BackoffMax  string `toml:"backoff_max"`
	CallTimeout string `toml:"call_timeout"`
}

// BackoffBaseDuration returns BackoffBase as a time.Duration.
func (c *GatewayConfig) BackoffBaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackoffBase)
	return d
}

// BackoffMaxDuration returns BackoffMax as a time.Duration.
func (c *GatewayConfig) BackoffMaxDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackoffMax)
	return d
}

// CallTimeoutDuration returns CallTimeout as a time.Duration.
func (c *GatewayConfig) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GatewayConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GatewayConfig) Merge(overlay *GatewayConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BackoffBase != "" {
		c.BackoffBase = overlay.BackoffBase
	}
	if overlay.BackoffMax != "" {
		c.BackoffMax = overlay.BackoffMax
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
}

func (c *GatewayConfig) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase == "" {
		c.BackoffBase = "500ms"
	}
	if c.BackoffMax == "" {
		c.BackoffMax = "8s"
	}
	if c.CallTimeout == "" {
		c.CallTimeout = "90s"
	}
}

func (c *GatewayConfig) loadEnv() {
	if v := os.Getenv(EnvGatewayMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(EnvGatewayBackoffBase); v != "" {
		c.BackoffBase = v
	}
	if v := os.Getenv(EnvGatewayBackoffMax); v != "" {
		c.BackoffMax = v
	}
	if v := os.Getenv(EnvGatewayCallTimeout); v != "" {
		c.CallTimeout = v
	}
}

func (c *GatewayConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if _, err := time.ParseDuration(c.BackoffBase); err != nil {
		return fmt.Errorf("invalid backoff_base: %w", err)
	}
	if _, err := time.ParseDuration(c.BackoffMax); err != nil {
		return fmt.Errorf("invalid backoff_max: %w", err)
	}
	if d, err := time.ParseDuration(c.CallTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid call_timeout: %q", c.CallTimeout)
	}
	return nil
}
