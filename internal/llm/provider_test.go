package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		TextReply("plain text"),
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 || resp1.StopReason != "end" {
		t.Fatalf("unexpected response metadata: %+v", resp1)
	}

	resp2, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text() != "plain text" {
		t.Fatalf("expected plain text, got %q", resp2.Text())
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestMockProvider_EmptyQueueIsUnavailable(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %v", err)
	}
	if !Offline(err) {
		t.Fatal("empty queue should count as offline")
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(JSONReply(map[string]any{"isCorrect": true}))
	_, err := mock.Generate(context.Background(), Request{Schema: feedbackTestSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}
	if Offline(err) {
		t.Fatal("a bad answer is not an offline provider")
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"quoted"`, "quoted"},
		{`bare words`, "bare words"},
		{`{"k":"v"}`, `{"k":"v"}`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Sure! Here it is: {\"a\":{\"b\":2}} Hope it helps.", `{"a":{"b":2}}`},
		{"no object", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.raw); got != tt.want {
				t.Fatalf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	schema := feedbackTestSchema()
	valid := "```json\n{\"isCorrect\":true,\"explanation\":\"ok\"}\n```"

	resp, err := complete(Request{Schema: schema}, valid, Usage{TotalTokens: 3}, "m", "end")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"isCorrect":true,"explanation":"ok"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}

	_, err = complete(Request{Schema: schema}, `{"isCorrect":tr`, Usage{}, "m", "max_tokens")
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}

	_, err = complete(Request{Schema: schema}, `{"isCorrect":true}`, Usage{}, "m", "end")
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}

	resp, err = complete(Request{}, "  a hint  ", Usage{}, "m", "end")
	if err != nil || string(resp.Content) != "  a hint  " {
		t.Fatalf("plain text should pass through untouched, got %q, %v", resp.Content, err)
	}
}

func TestPing(t *testing.T) {
	mock := NewMockProvider(TextReply("ok"), TextReply("   "))

	if err := Ping(context.Background(), mock); err != nil {
		t.Fatalf("Ping() = %v", err)
	}
	if mock.Calls[0].MaxTokens != 10 {
		t.Fatalf("ping should be small, MaxTokens = %d", mock.Calls[0].MaxTokens)
	}

	var inv *ErrInvalidResponse
	if err := Ping(context.Background(), mock); !errors.As(err, &inv) {
		t.Fatalf("blank reply should be invalid, got %v", err)
	}
	if err := Ping(context.Background(), mock); err == nil {
		t.Fatal("exhausted provider should fail ping")
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(slowProvider{}, 5*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !Offline(err) {
		t.Fatal("timeout should count as offline")
	}
	if p.ModelID() != "slow" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, "answer-feedback")
	if p := PurposeFrom(ctx); p != "answer-feedback" {
		t.Fatalf("expected 'answer-feedback', got %q", p)
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("deepseek-chat", 1_000_000, 1_000_000)
	if !ok {
		t.Fatal("deepseek-chat should be priced")
	}
	if cost < 1.36 || cost > 1.38 {
		t.Fatalf("cost = %v, want about 1.37", cost)
	}
	if _, ok := EstimateCost("no-such-model", 1, 1); ok {
		t.Fatal("unknown model should not be priced")
	}
}
