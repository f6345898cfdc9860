package config

import (
	"fmt"
	"os"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/formatting"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/middleware"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
)

const (
	EnvAPIBasePath     = "TOSGUARD_API_BASE_PATH"
	EnvAPIMaxMediaSize = "TOSGUARD_API_MAX_MEDIA_SIZE"
	EnvAPIMaxBodySize  = "TOSGUARD_API_MAX_BODY_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TOSGUARD_CORS_ENABLED",
	Origins:          "TOSGUARD_CORS_ORIGINS",
	AllowedMethods:   "TOSGUARD_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TOSGUARD_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "TOSGUARD_CORS_EXPOSED_HEADERS",
	AllowCredentials: "TOSGUARD_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TOSGUARD_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TOSGUARD_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TOSGUARD_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxMediaSize string                `toml:"max_media_size"`
	MaxBodySize  string                `toml:"max_body_size"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Pagination   pagination.Config     `toml:"pagination"`
}

// MaxMediaSizeBytes returns the media upload limit in bytes.
func (c *APIConfig) MaxMediaSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxMediaSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// MaxBodySizeBytes returns the analysis request body limit in bytes.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxMediaSize != "" {
		c.MaxMediaSize = overlay.MaxMediaSize
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxMediaSize == "" {
		c.MaxMediaSize = "10MB"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxMediaSize); v != "" {
		c.MaxMediaSize = v
	}
	if v := os.Getenv(EnvAPIMaxBodySize); v != "" {
		c.MaxBodySize = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxMediaSize); err != nil {
		return fmt.Errorf("invalid max_media_size: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	return nil
}
