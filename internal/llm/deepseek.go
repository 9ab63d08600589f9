package llm

import "fmt"

const defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider targets the DeepSeek chat API. DeepSeek speaks the
// OpenAI wire protocol but only supports json_object output, so schemas are
// described in the system prompt and validated on return.
type DeepSeekProvider struct {
	*OpenAIProvider
}

// NewDeepSeekProvider creates a provider targeting the DeepSeek API.
func NewDeepSeekProvider(cfg DeepSeekConfig) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}

	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   model,
		BaseURL: baseURL,
	}, schemaInPrompt)
	if err != nil {
		return nil, err
	}
	return &DeepSeekProvider{OpenAIProvider: inner}, nil
}
