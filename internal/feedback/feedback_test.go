package feedback

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/abhisek/pyquest/internal/llm"
	"github.com/abhisek/pyquest/internal/progress"
)

func sampleAnswer() AnswerInput {
	return AnswerInput{
		QuestionText:   "What is the type of the value True?",
		StudentAnswer:  "str",
		CorrectAnswer:  "bool",
		ChapterTitle:   "Variables and Data Types",
		Difficulty:     "Beginner",
		Topic:          "variables",
		AchieverStatus: progress.AverageAchiever,
		TotalAnswered:  4,
		CorrectCount:   3,
	}
}

func modelFeedback() map[string]any {
	return map[string]any{
		"isCorrect":     false,
		"explanation":   "True is a boolean, so its type is bool rather than str.",
		"encouragement": "Nice try, booleans are easy to mix up!",
		"nextSteps":     []string{"Call type(True) in the REPL"},
		"difficulty":    "easy",
		"relatedTopics": []string{"booleans", "type()"},
	}
}

func TestAnalyzeUsesModel(t *testing.T) {
	mock := llm.NewMockProvider(llm.JSONReply(modelFeedback()))
	g := New(mock, DefaultConfig(), nil)

	fb := g.Analyze(context.Background(), sampleAnswer())
	if fb.Source != SourceModel {
		t.Fatalf("Source = %q, want model", fb.Source)
	}
	if fb.IsCorrect || fb.Difficulty != "easy" {
		t.Errorf("feedback = %+v", fb)
	}
	if !slices.Equal(fb.RelatedTopics, []string{"booleans", "type()"}) {
		t.Errorf("RelatedTopics = %v", fb.RelatedTopics)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.Schema != AnswerFeedbackSchema {
		t.Error("request did not carry the feedback schema")
	}
	if req.MaxTokens != 600 || req.Temperature != 0.7 {
		t.Errorf("MaxTokens/Temperature = %d/%v", req.MaxTokens, req.Temperature)
	}
	msg := req.Messages[0].Content
	for _, want := range []string{
		`Question: "What is the type of the value True?"`,
		`Student's answer: "str"`,
		`Correct answer: "bool"`,
		"average achiever (3/4 correct in this chapter)",
		"balanced feedback",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestAnalyzeFallsBack(t *testing.T) {
	blank := modelFeedback()
	blank["explanation"] = "   "

	tests := []struct {
		name  string
		reply llm.MockResponse
	}{
		{"provider unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}}},
		{"rate limited", llm.MockResponse{Err: &llm.ErrRateLimit{}}},
		{"not json", llm.TextReply("I think the answer is bool.")},
		{"schema violation", llm.JSONReply(map[string]any{"isCorrect": true})},
		{"blank explanation", llm.JSONReply(blank)},
		{"other error", llm.MockResponse{Err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(llm.NewMockProvider(tt.reply), DefaultConfig(), nil)
			fb := g.Analyze(context.Background(), sampleAnswer())
			if fb.Source != SourceFallback {
				t.Fatalf("Source = %q, want fallback", fb.Source)
			}
			if fb.IsCorrect {
				t.Error("fallback judged a wrong answer correct")
			}
			if fb.Explanation != averageTier.explanation[0] {
				t.Errorf("Explanation = %q", fb.Explanation)
			}
		})
	}
}

func TestAnalyzeWithoutProvider(t *testing.T) {
	g := New(nil, DefaultConfig(), nil)
	if g.Configured() {
		t.Error("Configured() = true without a provider")
	}
	in := sampleAnswer()
	in.StudentAnswer = " BOOL "
	fb := g.Analyze(context.Background(), in)
	if !fb.IsCorrect || fb.Source != SourceFallback {
		t.Errorf("feedback = %+v, want correct fallback", fb)
	}
}

func TestAnalyzeCanceledContextFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := llm.NewMockProvider(llm.JSONReply(modelFeedback()))
	fb := New(mock, DefaultConfig(), nil).Analyze(ctx, sampleAnswer())
	if fb.Source != SourceFallback {
		t.Errorf("Source = %q, want fallback", fb.Source)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name    string
		status  progress.AchieverStatus
		student string
		correct bool
		tier    cannedTier
	}{
		{"low wrong", progress.LowAchiever, "str", false, lowTier},
		{"low right", progress.LowAchiever, "bool", true, lowTier},
		{"average wrong", progress.AverageAchiever, "int", false, averageTier},
		{"high right", progress.HighAchiever, "Bool", true, highTier},
		{"high wrong", progress.HighAchiever, "float", false, highTier},
		{"no status uses average", "", "bool", true, averageTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleAnswer()
			in.AchieverStatus = tt.status
			in.StudentAnswer = tt.student
			fb := Fallback(in)

			i := 0
			if tt.correct {
				i = 1
			}
			if fb.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v, want %v", fb.IsCorrect, tt.correct)
			}
			if fb.Explanation != tt.tier.explanation[i] || fb.Encouragement != tt.tier.encouragement[i] {
				t.Errorf("canned text from wrong tier: %q", fb.Explanation)
			}
			if !slices.Equal(fb.NextSteps, tt.tier.nextSteps[i]) {
				t.Errorf("NextSteps = %v", fb.NextSteps)
			}
			if fb.Difficulty != "medium" {
				t.Errorf("Difficulty = %q", fb.Difficulty)
			}
			if want := []string{"variables", "Python basics", "Programming fundamentals"}; !slices.Equal(fb.RelatedTopics, want) {
				t.Errorf("RelatedTopics = %v", fb.RelatedTopics)
			}
		})
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	a, b := Fallback(sampleAnswer()), Fallback(sampleAnswer())
	if a.Explanation != b.Explanation || !slices.Equal(a.NextSteps, b.NextSteps) {
		t.Error("fallback differs between calls")
	}
	// Callers may edit the result without touching the canned tables.
	a.NextSteps[0] = "changed"
	if averageTier.nextSteps[0][0] == "changed" {
		t.Error("fallback aliases the canned next steps")
	}
}

func TestHint(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextReply("  Think about which values can only be True or False.  "))
	g := New(mock, DefaultConfig(), nil)

	hint := g.Hint(context.Background(), HintInput{
		QuestionText:   "What is the type of the value True?",
		PriorAttempts:  []string{"str", "int"},
		ChapterTitle:   "Variables and Data Types",
		Topic:          "variables",
		AchieverStatus: progress.LowAchiever,
	})
	if hint != "Think about which values can only be True or False." {
		t.Errorf("hint = %q", hint)
	}

	req := mock.Calls[0]
	if req.Schema != nil {
		t.Error("hint request carried a schema")
	}
	if req.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Previous attempts: str, int", "tiny steps", "low achiever"} {
		if !strings.Contains(msg, want) {
			t.Errorf("hint prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestHintFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		reply  []llm.MockResponse
		status progress.AchieverStatus
	}{
		{"unavailable", nil, progress.HighAchiever},
		{"empty reply", []llm.MockResponse{llm.TextReply("   ")}, progress.LowAchiever},
		{"error", []llm.MockResponse{{Err: errors.New("boom")}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(llm.NewMockProvider(tt.reply...), DefaultConfig(), nil)
			got := g.Hint(context.Background(), HintInput{QuestionText: "q", AchieverStatus: tt.status})
			if want := FallbackHint(tt.status); got != want {
				t.Errorf("hint = %q, want %q", got, want)
			}
		})
	}
}

func TestFallbackHintTiers(t *testing.T) {
	low := FallbackHint(progress.LowAchiever)
	avg := FallbackHint(progress.AverageAchiever)
	high := FallbackHint(progress.HighAchiever)
	if low == avg || avg == high || low == high {
		t.Error("tiers share a hint")
	}
	if FallbackHint("") != avg {
		t.Error("unknown tier should get the average hint")
	}
}

func TestPing(t *testing.T) {
	if err := New(nil, DefaultConfig(), nil).Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping without provider = %v", err)
	}

	ok := New(llm.NewMockProvider(llm.TextReply("ok")), DefaultConfig(), nil)
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("Ping = %v", err)
	}

	down := New(llm.NewMockProvider(), DefaultConfig(), nil)
	var unavailable *llm.ErrProviderUnavailable
	if err := down.Ping(context.Background()); !errors.As(err, &unavailable) {
		t.Errorf("Ping on empty mock = %v", err)
	}
}

func TestPromptWithoutPerformance(t *testing.T) {
	in := sampleAnswer()
	in.AchieverStatus = ""
	msg, err := buildAnalyzeMessage(in)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(msg, "performance profile") {
		t.Error("prompt mentions a performance profile without one")
	}
	if !strings.Contains(msg, "simple language") {
		t.Error("prompt missing beginner guidance")
	}
}
