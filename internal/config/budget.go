package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvBudgetTokensPerMinute   = "TOSGUARD_BUDGET_TOKENS_PER_MINUTE"
	EnvBudgetRequestsPerMinute = "TOSGUARD_BUDGET_REQUESTS_PER_MINUTE"
	EnvBudgetMaxConcurrent     = "TOSGUARD_BUDGET_MAX_CONCURRENT"
	EnvBudgetInterCallDelay    = "TOSGUARD_BUDGET_INTER_CALL_DELAY"
	EnvBudgetWindow            = "TOSGUARD_BUDGET_WINDOW"
	EnvBudgetAdmitThreshold    = "TOSGUARD_BUDGET_ADMIT_THRESHOLD"
)

// BudgetConfig holds the process-wide token and request limits applied to
// every outbound model call.
type BudgetConfig struct {
	TokensPerMinute   int     `toml:"tokens_per_minute"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
	MaxConcurrent     int     `toml:"max_concurrent"`
	InterCallDelay    string  `toml:"inter_call_delay"`
	Window            string  `toml:"window"`
	AdmitThreshold    float64 `toml:"admit_threshold"`
}

// InterCallDelayDuration returns InterCallDelay as a time.Duration.
func (c *BudgetConfig) InterCallDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.InterCallDelay)
	return d
}

// WindowDuration returns Window as a time.Duration.
func (c *BudgetConfig) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.Window)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *BudgetConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *BudgetConfig) Merge(overlay *BudgetConfig) {
	if overlay.TokensPerMinute != 0 {
		c.TokensPerMinute = overlay.TokensPerMinute
	}
	if overlay.RequestsPerMinute != 0 {
		c.RequestsPerMinute = overlay.RequestsPerMinute
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.InterCallDelay != "" {
		c.InterCallDelay = overlay.InterCallDelay
	}
	if overlay.Window != "" {
		c.Window = overlay.Window
	}
	if overlay.AdmitThreshold != 0 {
		c.AdmitThreshold = overlay.AdmitThreshold
	}
}

func (c *BudgetConfig) loadDefaults() {
	if c.TokensPerMinute == 0 {
		c.TokensPerMinute = 40000
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 50
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if c.InterCallDelay == "" {
		c.InterCallDelay = "200ms"
	}
	if c.Window == "" {
		c.Window = "1m"
	}
	if c.AdmitThreshold == 0 {
		c.AdmitThreshold = 0.8
	}
}

func (c *BudgetConfig) loadEnv() {
	if v := os.Getenv(EnvBudgetTokensPerMinute); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TokensPerMinute = n
		}
	}
	if v := os.Getenv(EnvBudgetRequestsPerMinute); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RequestsPerMinute = n
		}
	}
	if v := os.Getenv(EnvBudgetMaxConcurrent); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv(EnvBudgetInterCallDelay); v != "" {
		c.InterCallDelay = v
	}
	if v := os.Getenv(EnvBudgetWindow); v != "" {
		c.Window = v
	}
	if v := os.Getenv(EnvBudgetAdmitThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.AdmitThreshold = f
		}
	}
}

func (c *BudgetConfig) validate() error {
	if c.TokensPerMinute < 1 {
		return fmt.Errorf("tokens_per_minute must be positive")
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be positive")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	if _, err := time.ParseDuration(c.InterCallDelay); err != nil {
		return fmt.Errorf("invalid inter_call_delay: %w", err)
	}
	if d, err := time.ParseDuration(c.Window); err != nil || d <= 0 {
		return fmt.Errorf("invalid window: %q", c.Window)
	}
	if c.AdmitThreshold <= 0 || c.AdmitThreshold > 1 {
		return fmt.Errorf("admit_threshold must be in (0, 1]: %v", c.AdmitThreshold)
	}
	return nil
}
