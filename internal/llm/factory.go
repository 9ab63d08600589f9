package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/pyquest/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and, when eventRepo is non-nil,
// event-logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderDeepSeek:
		base, err = NewDeepSeekProvider(cfg.DeepSeek)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	wrapped := base
	if eventRepo != nil {
		wrapped = WithLogging(wrapped, eventRepo, logger)
	}
	wrapped = WithRetry(wrapped, cfg.Retry, logger)
	if cfg.Timeout > 0 {
		wrapped = WithTimeout(wrapped, cfg.Timeout)
	}
	return wrapped, nil
}

// NewProviderFromEnv builds a provider from PYQUEST_LLM_PROVIDER when set,
// otherwise from the first well-known API key found in the environment.
// It returns (nil, nil) when nothing is configured; callers then run on
// their local fallbacks.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if os.Getenv("PYQUEST_LLM_PROVIDER") != "" {
		return NewProvider(ctx, ConfigFromEnv(), eventRepo, logger)
	}
	cfg, ok := DiscoverConfig()
	if !ok {
		return nil, nil
	}
	return NewProvider(ctx, cfg, eventRepo, logger)
}
