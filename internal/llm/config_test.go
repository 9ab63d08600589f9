package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/abhisek/pyquest/internal/store"
)

var allKeyVars = []string{
	"PYQUEST_LLM_PROVIDER",
	"PYQUEST_DEEPSEEK_API_KEY", "PYQUEST_DEEPSEEK_MODEL", "PYQUEST_DEEPSEEK_BASE_URL",
	"PYQUEST_ANTHROPIC_API_KEY", "PYQUEST_OPENAI_API_KEY", "PYQUEST_GEMINI_API_KEY",
	"PYQUEST_OPENROUTER_API_KEY",
	"DEEPSEEK_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
}

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range allKeyVars {
		t.Setenv(k, "")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"deepseek without key", Config{Provider: ProviderDeepSeek}, true},
		{"deepseek with key", Config{Provider: ProviderDeepSeek, DeepSeek: DeepSeekConfig{APIKey: "sk"}}, false},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk"}}, false},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	clearKeys(t)
	t.Setenv("PYQUEST_DEEPSEEK_API_KEY", "sk-live")
	t.Setenv("PYQUEST_DEEPSEEK_MODEL", "deepseek-reasoner")
	t.Setenv("PYQUEST_OPENAI_API_KEY", "your-openai-key-here")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderDeepSeek {
		t.Fatalf("default provider = %q", cfg.Provider)
	}
	if cfg.DeepSeek.APIKey != "sk-live" || cfg.DeepSeek.Model != "deepseek-reasoner" {
		t.Fatalf("deepseek config = %+v", cfg.DeepSeek)
	}
	if cfg.DeepSeek.BaseURL != defaultDeepSeekBaseURL {
		t.Fatalf("base URL = %q", cfg.DeepSeek.BaseURL)
	}
	if cfg.OpenAI.APIKey != "" {
		t.Fatalf("placeholder key should be ignored, got %q", cfg.OpenAI.APIKey)
	}
}

func TestDiscoverConfig(t *testing.T) {
	clearKeys(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("nothing configured, expected no config")
	}

	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderGemini {
		t.Fatalf("expected gemini to win over openai, got %q", cfg.Provider)
	}

	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	cfg, ok = DiscoverConfig()
	if !ok || cfg.Provider != ProviderDeepSeek || cfg.DeepSeek.APIKey != "ds-key" {
		t.Fatalf("expected deepseek first, got %+v", cfg)
	}
}

func TestNewProviderFromEnv(t *testing.T) {
	clearKeys(t)
	p, err := NewProviderFromEnv(context.Background(), nil, nil)
	if err != nil || p != nil {
		t.Fatalf("expected (nil, nil) with nothing configured, got %v, %v", p, err)
	}

	t.Setenv("PYQUEST_LLM_PROVIDER", "deepseek")
	if _, err := NewProviderFromEnv(context.Background(), nil, nil); err == nil {
		t.Fatal("explicit provider without a key should fail")
	}

	t.Setenv("PYQUEST_LLM_PROVIDER", "mock")
	p, err = NewProviderFromEnv(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

func TestNewProvider_Chain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeepSeek.APIKey = "sk"

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	timeout, ok := p.(*TimeoutProvider)
	if !ok {
		t.Fatalf("outermost layer = %T, want *TimeoutProvider", p)
	}
	retry, ok := timeout.inner.(*RetryProvider)
	if !ok {
		t.Fatalf("second layer = %T, want *RetryProvider", timeout.inner)
	}
	if _, ok := retry.inner.(*DeepSeekProvider); !ok {
		t.Fatalf("without an event repo the base sits under retry, got %T", retry.inner)
	}
	if p.ModelID() != "deepseek-chat" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestWithLogging_RecordsEvents(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(
		MockResponse{Content: []byte(`"use range()"`), Usage: Usage{InputTokens: 12, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithLogging(mock, repo, nil)

	ctx := WithPurpose(context.Background(), "hint")
	if _, err := p.Generate(ctx, Request{System: "tutor", Messages: []Message{{Role: RoleUser, Content: "help"}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected second call to fail")
	}

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	failed, ok := events[0], events[1]
	if failed.Success || failed.ErrorMessage == "" {
		t.Fatalf("newest event should be the failure: %+v", failed)
	}
	if !ok.Success || ok.InputTokens != 12 || ok.Purpose != "hint" || ok.Provider != ProviderMock {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if ok.RequestBody != "[system]\ntutor\n\n[user]\nhelp\n\n" {
		t.Fatalf("request body = %q", ok.RequestBody)
	}
	if ok.ResponseBody != `"use range()"` {
		t.Fatalf("response body = %q", ok.ResponseBody)
	}
}

func TestProviderName(t *testing.T) {
	ds, err := NewDeepSeekProvider(DeepSeekConfig{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if got := providerName(ds); got != ProviderDeepSeek {
		t.Fatalf("providerName(deepseek) = %q", got)
	}
	if got := providerName(slowProvider{}); got != "slow" {
		t.Fatalf("unknown providers report their model, got %q", got)
	}
}
