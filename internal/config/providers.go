package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Provider names understood by the provider factory.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var providerNames = []string{ProviderAnthropic, ProviderOpenAI}

// ProviderEnv maps provider fields to environment variable names.
// KeyFallback is consulted when the scoped key variable is unset.
type ProviderEnv struct {
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   string
	KeyFallback map[string]string
}

var primaryEnv = &ProviderEnv{
	Name:      "TOSGUARD_PRIMARY_PROVIDER",
	BaseURL:   "TOSGUARD_PRIMARY_BASE_URL",
	APIKey:    "TOSGUARD_PRIMARY_API_KEY",
	Model:     "TOSGUARD_PRIMARY_MODEL",
	MaxTokens: "TOSGUARD_PRIMARY_MAX_TOKENS",
	KeyFallback: map[string]string{
		ProviderAnthropic: "ANTHROPIC_API_KEY",
		ProviderOpenAI:    "OPENAI_API_KEY",
	},
}

var secondaryEnv = &ProviderEnv{
	Name:      "TOSGUARD_SECONDARY_PROVIDER",
	BaseURL:   "TOSGUARD_SECONDARY_BASE_URL",
	APIKey:    "TOSGUARD_SECONDARY_API_KEY",
	Model:     "TOSGUARD_SECONDARY_MODEL",
	MaxTokens: "TOSGUARD_SECONDARY_MAX_TOKENS",
	KeyFallback: map[string]string{
		ProviderAnthropic: "ANTHROPIC_API_KEY",
		ProviderOpenAI:    "OPENAI_API_KEY",
	},
}

// ProviderConfig describes one backing model provider.
type ProviderConfig struct {
	Name      string `toml:"name"`
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// ProvidersConfig holds the primary (multi-modal capable) and secondary
// providers used by the model gateway.
type ProvidersConfig struct {
	Primary   ProviderConfig `toml:"primary"`
	Secondary ProviderConfig `toml:"secondary"`
}

// Finalize applies defaults, environment overrides, and validation to both
// providers.
func (c *ProvidersConfig) Finalize() error {
	if c.Primary.Name == "" {
		c.Primary.Name = ProviderAnthropic
	}
	if c.Secondary.Name == "" {
		c.Secondary.Name = ProviderOpenAI
	}
	if err := c.Primary.Finalize(primaryEnv); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	if err := c.Secondary.Finalize(secondaryEnv); err != nil {
		return fmt.Errorf("secondary: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ProvidersConfig) Merge(overlay *ProvidersConfig) {
	c.Primary.Merge(&overlay.Primary)
	c.Secondary.Merge(&overlay.Secondary)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ProviderConfig) Finalize(env *ProviderEnv) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProviderConfig) Merge(overlay *ProviderConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
}

func (c *ProviderConfig) loadDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	switch c.Name {
	case ProviderAnthropic:
		if c.Model == "" {
			c.Model = "claude-sonnet-4-5"
		}
	case ProviderOpenAI:
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com/v1"
		}
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	}
}

func (c *ProviderConfig) loadEnv(env *ProviderEnv) {
	if v := os.Getenv(env.Name); v != "" {
		c.Name = v
	}
	if v := os.Getenv(env.BaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(env.Model); v != "" {
		c.Model = v
	}
	if v := os.Getenv(env.MaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv(env.APIKey); v != "" {
		c.APIKey = v
	}
	if c.APIKey == "" {
		if fallback, ok := env.KeyFallback[c.Name]; ok {
			c.APIKey = os.Getenv(fallback)
		}
	}
}

func (c *ProviderConfig) validate() error {
	if !slices.Contains(providerNames, c.Name) {
		return fmt.Errorf("unsupported provider %q", c.Name)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}
