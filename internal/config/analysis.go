package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvAnalysisChunkSize      = "TOSGUARD_ANALYSIS_CHUNK_SIZE"
	EnvAnalysisChunkOverlap   = "TOSGUARD_ANALYSIS_CHUNK_OVERLAP"
	EnvAnalysisMinTextLength  = "TOSGUARD_ANALYSIS_MIN_TEXT_LENGTH"
	EnvAnalysisMaxTextLength  = "TOSGUARD_ANALYSIS_MAX_TEXT_LENGTH"
	EnvAnalysisMaxSuggestions = "TOSGUARD_ANALYSIS_MAX_SUGGESTIONS"
	EnvAnalysisMinSuggestions = "TOSGUARD_ANALYSIS_MIN_SUGGESTIONS"
	EnvAnalysisBasicMaxChars  = "TOSGUARD_ANALYSIS_BASIC_MAX_CHARS"
	EnvAnalysisPolicyFile     = "TOSGUARD_ANALYSIS_POLICY_FILE"
)

// AnalysisConfig holds pipeline sizing parameters. Lengths are measured in
// runes.
type AnalysisConfig struct {
	ChunkSize      int    `toml:"chunk_size"`
	ChunkOverlap   int    `toml:"chunk_overlap"`
	MinTextLength  int    `toml:"min_text_length"`
	MaxTextLength  int    `toml:"max_text_length"`
	MaxSuggestions int    `toml:"max_suggestions"`
	MinSuggestions int    `toml:"min_suggestions"`
	BasicMaxChars  int    `toml:"basic_max_chars"`
	PolicyFile     string `toml:"policy_file"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.ChunkOverlap != 0 {
		c.ChunkOverlap = overlay.ChunkOverlap
	}
	if overlay.MinTextLength != 0 {
		c.MinTextLength = overlay.MinTextLength
	}
	if overlay.MaxTextLength != 0 {
		c.MaxTextLength = overlay.MaxTextLength
	}
	if overlay.MaxSuggestions != 0 {
		c.MaxSuggestions = overlay.MaxSuggestions
	}
	if overlay.MinSuggestions != 0 {
		c.MinSuggestions = overlay.MinSuggestions
	}
	if overlay.BasicMaxChars != 0 {
		c.BasicMaxChars = overlay.BasicMaxChars
	}
	if overlay.PolicyFile != "" {
		c.PolicyFile = overlay.PolicyFile
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 4000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
	if c.MinTextLength == 0 {
		c.MinTextLength = 10
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = 100000
	}
	if c.MaxSuggestions == 0 {
		c.MaxSuggestions = 12
	}
	if c.MinSuggestions == 0 {
		c.MinSuggestions = 5
	}
	if c.BasicMaxChars == 0 {
		c.BasicMaxChars = 8000
	}
}

func (c *AnalysisConfig) loadEnv() {
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(EnvAnalysisChunkSize, &c.ChunkSize)
	setInt(EnvAnalysisChunkOverlap, &c.ChunkOverlap)
	setInt(EnvAnalysisMinTextLength, &c.MinTextLength)
	setInt(EnvAnalysisMaxTextLength, &c.MaxTextLength)
	setInt(EnvAnalysisMaxSuggestions, &c.MaxSuggestions)
	setInt(EnvAnalysisMinSuggestions, &c.MinSuggestions)
	setInt(EnvAnalysisBasicMaxChars, &c.BasicMaxChars)

	if v := os.Getenv(EnvAnalysisPolicyFile); v != "" {
		c.PolicyFile = v
	}
}

func (c *AnalysisConfig) validate() error {
	if c.ChunkSize < 100 {
		return fmt.Errorf("chunk_size must be at least 100: %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize/2 {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size/2): %d", c.ChunkOverlap)
	}
	if c.MinTextLength < 1 {
		return fmt.Errorf("min_text_length must be positive")
	}
	if c.MaxTextLength < c.MinTextLength {
		return fmt.Errorf("max_text_length cannot be less than min_text_length")
	}
	if c.MinSuggestions < 0 || c.MaxSuggestions < c.MinSuggestions {
		return fmt.Errorf("invalid suggestion bounds: min=%d max=%d", c.MinSuggestions, c.MaxSuggestions)
	}
	if c.BasicMaxChars < 1 {
		return fmt.Errorf("basic_max_chars must be positive")
	}
	return nil
}
