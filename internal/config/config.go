// Package config loads the bridge's settings from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/deduplication"
	"github.com/UllasZ/teams-taiga-integration/internal/taiga"
)

// Config is the complete runtime configuration.
type Config struct {
	Taiga  TaigaConfig          `yaml:"taiga"`
	AI     AIConfig             `yaml:"ai"`
	Dedup  deduplication.Config `yaml:"dedup"`
	Server ServerConfig         `yaml:"server"`
}

// TaigaConfig configures the backend client.
type TaigaConfig struct {
	APIURL      string `yaml:"api_url"`
	ProjectSlug string `yaml:"project_slug"`
	Username    string `yaml:"username"`

	// Password is only read from TAIGA_PASSWORD.
	Password string `yaml:"-"`

	// TimeoutSecs bounds ordinary requests.
	// Default: 30
	TimeoutSecs int `yaml:"timeout_secs"`

	// CreateTimeoutSecs bounds story creation.
	// Default: 300
	CreateTimeoutSecs int `yaml:"create_timeout_secs"`

	// RateLimit is requests per second; 0 disables pacing.
	// Default: 5
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// AIConfig configures text generation.
type AIConfig struct {
	ai.ProviderConfig `yaml:",inline"`

	// TimeoutSecs bounds each generation call.
	// Default: 15
	TimeoutSecs int `yaml:"timeout_secs"`

	// MaxConcurrent caps in-flight generation calls.
	// Default: 3
	MaxConcurrent int `yaml:"max_concurrent"`
}

// ServerConfig configures the webhook listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// TeamsSecret is only read from TEAMS_SECRET.
	TeamsSecret string `yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Taiga: TaigaConfig{
			APIURL:            taiga.DefaultBaseURL,
			TimeoutSecs:       30,
			CreateTimeoutSecs: 300,
			RateLimit:         5,
			Burst:             5,
		},
		AI: AIConfig{
			ProviderConfig: ai.ProviderConfig{
				Provider:    ai.ProviderOllama,
				OllamaURL:   ai.DefaultOllamaURL,
				OllamaModel: ai.DefaultOllamaModel,
			},
			TimeoutSecs:   15,
			MaxConcurrent: 3,
		},
		Dedup: deduplication.DefaultConfig(),
		Server: ServerConfig{
			ListenAddr: ":8000",
		},
	}
}

// Load reads path (if non-empty and present), applies environment
// overrides and validates. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing YAML: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	dedup, err := deduplication.ApplyEnv(cfg.Dedup)
	if err != nil {
		return cfg, err
	}
	cfg.Dedup = dedup

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envString("TAIGA_API_URL", &cfg.Taiga.APIURL)
	envString("TAIGA_PROJECT_SLUG", &cfg.Taiga.ProjectSlug)
	envString("TAIGA_USERNAME", &cfg.Taiga.Username)
	envString("TAIGA_PASSWORD", &cfg.Taiga.Password)
	if err := parseEnvFloat("TAIGA_RATE_LIMIT", &cfg.Taiga.RateLimit); err != nil {
		return err
	}
	if err := parseEnvInt("TAIGA_TIMEOUT_SECS", &cfg.Taiga.TimeoutSecs); err != nil {
		return err
	}

	envString("AI_PROVIDER", &cfg.AI.Provider)
	envString("OLLAMA_API_URL", &cfg.AI.OllamaURL)
	envString("OLLAMA_MODEL", &cfg.AI.OllamaModel)
	envString("ANTHROPIC_API_KEY", &cfg.AI.AnthropicAPIKey)
	envString("ANTHROPIC_MODEL", &cfg.AI.AnthropicModel)
	envString("GEMINI_API_KEY", &cfg.AI.GeminiAPIKey)
	envString("GEMINI_MODEL", &cfg.AI.GeminiModel)
	if err := parseEnvInt("AI_TIMEOUT_SECS", &cfg.AI.TimeoutSecs); err != nil {
		return err
	}
	if err := parseEnvInt("AI_MAX_CONCURRENT", &cfg.AI.MaxConcurrent); err != nil {
		return err
	}

	envString("TEAMS_SECRET", &cfg.Server.TeamsSecret)
	envString("LISTEN_ADDR", &cfg.Server.ListenAddr)
	return nil
}

// Validate checks if the configuration has valid values. Taiga
// credentials are checked separately by RequireTaiga since offline
// modes run without them.
func (c Config) Validate() error {
	if c.Taiga.TimeoutSecs < 1 {
		return fmt.Errorf("taiga timeout_secs must be at least 1 (got %d)", c.Taiga.TimeoutSecs)
	}
	if c.Taiga.CreateTimeoutSecs < 1 {
		return fmt.Errorf("taiga create_timeout_secs must be at least 1 (got %d)", c.Taiga.CreateTimeoutSecs)
	}
	if c.Taiga.RateLimit < 0 {
		return fmt.Errorf("taiga rate_limit cannot be negative (got %.2f)", c.Taiga.RateLimit)
	}
	if c.AI.TimeoutSecs < 1 {
		return fmt.Errorf("ai timeout_secs must be at least 1 (got %d)", c.AI.TimeoutSecs)
	}
	if c.AI.MaxConcurrent < 0 {
		return fmt.Errorf("ai max_concurrent cannot be negative (got %d)", c.AI.MaxConcurrent)
	}
	switch strings.ToLower(c.AI.Provider) {
	case "", ai.ProviderOllama, ai.ProviderAnthropic, ai.ProviderGemini, ai.ProviderNone:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if err := c.Dedup.Validate(); err != nil {
		return err
	}
	return nil
}

// RequireTaiga reports the first missing Taiga setting.
func (c Config) RequireTaiga() error {
	var missing []string
	if c.Taiga.ProjectSlug == "" {
		missing = append(missing, "TAIGA_PROJECT_SLUG")
	}
	if c.Taiga.Username == "" {
		missing = append(missing, "TAIGA_USERNAME")
	}
	if c.Taiga.Password == "" {
		missing = append(missing, "TAIGA_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Taiga settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// TaigaClientConfig converts to a taiga.Config.
func (c Config) TaigaClientConfig() taiga.Config {
	return taiga.Config{
		BaseURL:            c.Taiga.APIURL,
		ProjectSlug:        c.Taiga.ProjectSlug,
		Username:           c.Taiga.Username,
		Password:           c.Taiga.Password,
		Timeout:            time.Duration(c.Taiga.TimeoutSecs) * time.Second,
		CreateStoryTimeout: time.Duration(c.Taiga.CreateTimeoutSecs) * time.Second,
		RateLimit:          c.Taiga.RateLimit,
		Burst:              c.Taiga.Burst,
	}
}

// Provider returns the generator selection with its timeout filled in.
func (c Config) Provider() ai.ProviderConfig {
	pc := c.AI.ProviderConfig
	pc.Timeout = time.Duration(c.AI.TimeoutSecs) * time.Second
	return pc
}

// SupervisorConfig returns the supervisor settings.
func (c Config) SupervisorConfig() ai.Config {
	sc := ai.DefaultConfig()
	sc.Timeout = time.Duration(c.AI.TimeoutSecs) * time.Second
	sc.MaxConcurrentCalls = c.AI.MaxConcurrent
	return sc
}

// String returns a human-readable representation with secrets masked.
func (c Config) String() string {
	return fmt.Sprintf("Config{Taiga: %s project=%q user=%q password=%s, AI: %s, Dedup: %s, Listen: %s secret=%s}",
		c.Taiga.APIURL, c.Taiga.ProjectSlug, c.Taiga.Username, mask(c.Taiga.Password),
		providerName(c.AI.Provider), c.Dedup, c.Server.ListenAddr, mask(c.Server.TeamsSecret))
}

func providerName(p string) string {
	if p == "" {
		return ai.ProviderOllama
	}
	return p
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "****"
}

// envString copies a non-empty environment variable into dest
func envString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
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
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
