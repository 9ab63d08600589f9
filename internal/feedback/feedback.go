// Package feedback produces tutoring feedback on quiz answers and hints for
// stuck learners. A language model personalizes both when one is
// configured; otherwise, or whenever the model fails, deterministic canned
// text is used so callers always get a result.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/abhisek/pyquest/internal/llm"
	"github.com/abhisek/pyquest/internal/progress"
)

// ErrNotConfigured is returned by Ping when no model is configured.
var ErrNotConfigured = errors.New("no feedback model configured")

// Feedback sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// AnswerInput describes one answered question.
type AnswerInput struct {
	QuestionText  string
	StudentAnswer string
	CorrectAnswer string
	ChapterTitle  string
	Difficulty    string
	Topic         string

	// Optional chapter performance context.
	AchieverStatus progress.AchieverStatus
	TotalAnswered  int
	CorrectCount   int
}

// HintInput describes a question the learner is stuck on.
type HintInput struct {
	QuestionText   string
	PriorAttempts  []string
	ChapterTitle   string
	Topic          string
	AchieverStatus progress.AchieverStatus
}

// Feedback is the tutoring response to an answer.
type Feedback struct {
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
	Encouragement string   `json:"encouragement"`
	NextSteps     []string `json:"nextSteps"`
	Difficulty    string   `json:"difficulty"`
	RelatedTopics []string `json:"relatedTopics"`

	// Source is SourceModel or SourceFallback.
	Source string `json:"-"`
}

// Config tunes model requests.
type Config struct {
	AnswerMaxTokens   int
	AnswerTemperature float64
	HintMaxTokens     int
	HintTemperature   float64
}

func DefaultConfig() Config {
	return Config{
		AnswerMaxTokens:   600,
		AnswerTemperature: 0.7,
		HintMaxTokens:     100,
		HintTemperature:   0.8,
	}
}

// Generator produces feedback and hints.
type Generator struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates a Generator. provider may be nil, in which case every call
// uses the local fallback.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{provider: provider, cfg: cfg, logger: logger}
}

// Configured reports whether a model backs this Generator.
func (g *Generator) Configured() bool {
	return g.provider != nil
}

// Analyze returns feedback on an answer. It never fails.
func (g *Generator) Analyze(ctx context.Context, in AnswerInput) *Feedback {
	if g.provider == nil {
		return Fallback(in)
	}
	fb, err := g.analyze(ctx, in)
	if err != nil {
		g.logFallback("answer-feedback", err)
		return Fallback(in)
	}
	return fb
}

func (g *Generator) analyze(ctx context.Context, in AnswerInput) (*Feedback, error) {
	msg, err := buildAnalyzeMessage(in)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, "answer-feedback"), llm.Request{
		System:      analyzeSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      AnswerFeedbackSchema,
		MaxTokens:   g.cfg.AnswerMaxTokens,
		Temperature: g.cfg.AnswerTemperature,
	})
	if err != nil {
		return nil, err
	}

	var fb Feedback
	if err := json.Unmarshal(resp.Content, &fb); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	if strings.TrimSpace(fb.Explanation) == "" || strings.TrimSpace(fb.Encouragement) == "" {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("empty explanation or encouragement")}
	}
	if fb.NextSteps == nil {
		fb.NextSteps = []string{}
	}
	if fb.RelatedTopics == nil {
		fb.RelatedTopics = []string{}
	}
	fb.Source = SourceModel
	return &fb, nil
}

// Hint returns a short hint for a question. It never fails.
func (g *Generator) Hint(ctx context.Context, in HintInput) string {
	if g.provider == nil {
		return FallbackHint(in.AchieverStatus)
	}

	msg, err := buildHintMessage(in)
	if err == nil {
		var resp *llm.Response
		resp, err = g.provider.Generate(llm.WithPurpose(ctx, "hint"), llm.Request{
			System:      hintSystemPrompt,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
			MaxTokens:   g.cfg.HintMaxTokens,
			Temperature: g.cfg.HintTemperature,
		})
		if err == nil {
			if hint := strings.TrimSpace(resp.Text()); hint != "" {
				return hint
			}
			err = errors.New("empty hint")
		}
	}
	g.logFallback("hint", err)
	return FallbackHint(in.AchieverStatus)
}

// Ping checks that the configured model answers.
func (g *Generator) Ping(ctx context.Context) error {
	if g.provider == nil {
		return ErrNotConfigured
	}
	return llm.Ping(ctx, g.provider)
}

func (g *Generator) logFallback(purpose string, err error) {
	if llm.Offline(err) {
		g.logger.Info("feedback model unreachable, using fallback", "purpose", purpose, "err", err)
		return
	}
	g.logger.Warn("feedback model failed, using fallback", "purpose", purpose, "err", err)
}
