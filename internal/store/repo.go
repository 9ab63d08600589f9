package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by OpenRemote when no usable remote backend
// is configured. Callers treat it as local-only mode, not as a failure.
var ErrNotConfigured = errors.New("remote store not configured")

// ProgressData is the compact per-user account state.
type ProgressData struct {
	Points             int            `json:"points"`
	CurrentChapter     int            `json:"currentChapter"`
	CompletedChapters  []int          `json:"completedChapters"`
	CollectedCreatures []int          `json:"collectedCreatures"`
	Eggs               int            `json:"eggs"`
	CompletedProjects  []int          `json:"completedProjects"`
	SubmittedCode      map[int]string `json:"submittedCode,omitempty"`
}

// QuestionRecord is the persisted outcome of one question.
type QuestionRecord struct {
	Answered bool `json:"answered"`
	Correct  bool `json:"correct"`
}

// PerformanceRecord is the persisted per-chapter quiz summary.
type PerformanceRecord struct {
	TotalQuestionsAnswered int       `json:"total_questions_answered"`
	CorrectQuestionsCount  int       `json:"correct_questions_count"`
	AchieverStatus         string    `json:"achiever_status,omitempty"`
	LastUpdated            time.Time `json:"last_updated"`
}

// ChapterRecord is the persisted ledger of one chapter. Card presence in
// Flashcards means flipped.
type ChapterRecord struct {
	Flashcards  map[int]bool           `json:"flashcards,omitempty"`
	Questions   map[int]QuestionRecord `json:"questions,omitempty"`
	Performance *PerformanceRecord     `json:"performance,omitempty"`
	QuizResets  int                    `json:"quizResets,omitempty"`
}

// ProgressRecord is everything persisted for one learner.
type ProgressRecord struct {
	Progress ProgressData
	Chapters map[int]ChapterRecord
}

// Backend is a progress persistence strategy. Both the local and the remote
// store implement it.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Load returns the record for userID, or (nil, nil) if none exists.
	Load(ctx context.Context, userID string) (*ProgressRecord, error)

	// Save upserts the record for userID.
	Save(ctx context.Context, userID string, rec *ProgressRecord) error

	// Delete removes any record for userID.
	Delete(ctx context.Context, userID string) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	Before int64     // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID           int       `db:"id"`
	Timestamp    time.Time `db:"created_at"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"-"`
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
