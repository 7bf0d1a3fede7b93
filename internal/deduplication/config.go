package deduplication

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for duplicate detection and story matching
type Config struct {
	// StoryThreshold is the similarity ratio a story title must strictly exceed
	// to count as a duplicate of the incoming message.
	// Default: 0.8
	StoryThreshold float64 `yaml:"story_threshold"`

	// SubItemThreshold is the ratio used when checking sub-items under a story.
	// Default: 0.7
	SubItemThreshold float64 `yaml:"subitem_threshold"`

	// UseGenerator enables the generator stages. When false only the
	// deterministic ratio is used.
	// Default: true
	UseGenerator bool `yaml:"use_generator"`

	// MaxPromptCandidates caps how many existing titles are listed in one
	// generator prompt. The deterministic fallback always scans every title.
	// Default: 200
	MaxPromptCandidates int `yaml:"max_prompt_candidates"`
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		StoryThreshold:      0.8,
		SubItemThreshold:    0.7,
		UseGenerator:        true,
		MaxPromptCandidates: 200,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.StoryThreshold < 0.0 || c.StoryThreshold >= 1.0 {
		return fmt.Errorf("story_threshold must be in [0.0, 1.0) (got %.2f)", c.StoryThreshold)
	}
	if c.SubItemThreshold < 0.0 || c.SubItemThreshold >= 1.0 {
		return fmt.Errorf("subitem_threshold must be in [0.0, 1.0) (got %.2f)", c.SubItemThreshold)
	}
	if c.MaxPromptCandidates <= 0 {
		return fmt.Errorf("max_prompt_candidates must be positive (got %d)", c.MaxPromptCandidates)
	}
	if c.MaxPromptCandidates > 1000 {
		return fmt.Errorf("max_prompt_candidates too large (got %d, max 1000)", c.MaxPromptCandidates)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{Story: %.2f, SubItem: %.2f, Generator: %t, MaxPrompt: %d}",
		c.StoryThreshold, c.SubItemThreshold, c.UseGenerator, c.MaxPromptCandidates)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - TT_DEDUP_STORY_THRESHOLD: Story duplicate ratio (default: 0.8)
//   - TT_DEDUP_SUBITEM_THRESHOLD: Sub-item duplicate ratio (default: 0.7)
//   - TT_DEDUP_USE_GENERATOR: Consult the generator before the heuristic (default: true)
//   - TT_DEDUP_MAX_PROMPT_CANDIDATES: Titles listed per prompt (default: 200)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overlays the TT_DEDUP_* variables onto cfg and validates the result.
func ApplyEnv(cfg Config) (Config, error) {
	if err := parseEnvFloat("TT_DEDUP_STORY_THRESHOLD", &cfg.StoryThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("TT_DEDUP_SUBITEM_THRESHOLD", &cfg.SubItemThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("TT_DEDUP_USE_GENERATOR", &cfg.UseGenerator); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("TT_DEDUP_MAX_PROMPT_CANDIDATES", &cfg.MaxPromptCandidates); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
