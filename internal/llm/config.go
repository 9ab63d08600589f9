package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/abhisek/pyquest/internal/store"
)

// Provider names.
const (
	ProviderDeepSeek   = "deepseek"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "deepseek", "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	DeepSeek   DeepSeekConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 30s.
	Timeout time.Duration
}

// DeepSeekConfig holds DeepSeek-specific configuration.
type DeepSeekConfig struct {
	APIKey  string
	Model   string // Default: "deepseek-chat"
	BaseURL string // Default: "https://api.deepseek.com/v1"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderDeepSeek,
		DeepSeek: DeepSeekConfig{
			Model:   "deepseek-chat",
			BaseURL: defaultDeepSeekBaseURL,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// envKey reads an API key variable, treating template values such as
// "your-api-key-here" as unset.
func envKey(name string) string {
	v := os.Getenv(name)
	if store.IsPlaceholder(v) {
		return ""
	}
	return v
}

// ConfigFromEnv builds a Config from PYQUEST_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("PYQUEST_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := envKey("PYQUEST_DEEPSEEK_API_KEY"); k != "" {
		cfg.DeepSeek.APIKey = k
	}
	if m := os.Getenv("PYQUEST_DEEPSEEK_MODEL"); m != "" {
		cfg.DeepSeek.Model = m
	}
	if u := os.Getenv("PYQUEST_DEEPSEEK_BASE_URL"); u != "" {
		cfg.DeepSeek.BaseURL = u
	}

	if k := envKey("PYQUEST_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("PYQUEST_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := envKey("PYQUEST_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("PYQUEST_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("PYQUEST_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := envKey("PYQUEST_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("PYQUEST_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := envKey("PYQUEST_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("PYQUEST_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (DeepSeek → Gemini → OpenAI → Anthropic → OpenRouter) and returns a
// Config for the first provider whose key is found. Returns
// (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := envKey("DEEPSEEK_API_KEY"); k != "" {
		cfg.Provider = ProviderDeepSeek
		cfg.DeepSeek.APIKey = k
		return cfg, true
	}
	if k := envKey("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := envKey("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := envKey("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := envKey("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderDeepSeek:
		key, env = c.DeepSeek.APIKey, "PYQUEST_DEEPSEEK_API_KEY"
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "PYQUEST_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "PYQUEST_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "PYQUEST_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "PYQUEST_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
