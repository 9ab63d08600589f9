// Package progress is the progress engine. It owns the learner's snapshot
// and per-chapter ledger, applies gameplay commands to them, projects the
// game view, and persists the aggregate to the local or remote store.
//
// Commands run atomically under one lock and never touch the network;
// persistence happens only through Flush, FlushOnExit and ResetProgress.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/pyquest/internal/catalog"
	"github.com/abhisek/pyquest/internal/store"
	"github.com/abhisek/pyquest/internal/validator"
)

var (
	ErrUnknownChapter  = errors.New("unknown chapter")
	ErrUnknownCard     = errors.New("unknown flashcard")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrInvalidAnswer   = errors.New("answer index out of range")
	ErrChapterLocked   = errors.New("chapter is locked: complete the previous chapter first")
	ErrUnknownProject  = errors.New("unknown project")
	ErrProjectLocked   = errors.New("project is locked: complete the previous project first")
	ErrLoading         = errors.New("progress is loading")
	ErrIdentityChanged = errors.New("progress was replaced while the command was running")
)

// Point awards.
const (
	FlipPoints       = 5
	CorrectPoints    = 10
	CompletionPoints = 50
)

// CodeValidator decides whether submitted code passes a project.
type CodeValidator interface {
	Validate(ctx context.Context, p *catalog.Project, code string) bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocal sets the device-local backend.
func WithLocal(b store.Backend) Option { return func(e *Engine) { e.local = b } }

// WithRemote sets the remote backend. Leave it unset in local-only mode.
func WithRemote(b store.Backend) Option { return func(e *Engine) { e.remote = b } }

func WithValidator(v CodeValidator) Option { return func(e *Engine) { e.validator = v } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithRand sets the source for hatch draws.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// Engine is the progress engine. It is safe for concurrent use.
type Engine struct {
	cat       *catalog.Catalog
	local     store.Backend
	remote    store.Backend
	validator CodeValidator
	logger    *slog.Logger
	rng       *rand.Rand
	now       func() time.Time

	mu       sync.Mutex
	st       state
	userID   string
	rev      uint64 // bumped by every mutation
	savedRev uint64 // rev last confirmed written to the save target
	loading  bool
	loadSeq  uint64 // generation of the most recent Load
	epoch    uint64 // bumped whenever the state is replaced by Load or ResetProgress

	flushMu sync.Mutex // serializes Flush, FlushOnExit and ResetProgress
}

// New creates an engine holding default progress for an anonymous learner.
// Without WithLocal progress is kept in memory only.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{cat: cat, st: defaultState()}
	for _, opt := range opts {
		opt(e)
	}
	if e.local == nil {
		e.local = newMemoryBackend()
	}
	if e.validator == nil {
		e.validator = validator.New()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Catalog returns the content the engine plays against.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// touch marks the aggregate changed. Callers hold e.mu.
func (e *Engine) touch() { e.rev++ }

// unlockedLocked reports whether chapterID is playable. Callers hold e.mu.
func (e *Engine) unlockedLocked(chapterID int) bool {
	return chapterID == 1 || e.st.snap.ChapterCompleted(chapterID-1)
}

func (e *Engine) projectUnlockedLocked(projectID int) bool {
	return projectID == 1 || e.st.snap.ProjectCompleted(projectID-1)
}

// playableChapter resolves a chapter for a gameplay command. Callers hold
// e.mu.
func (e *Engine) playableChapter(chapterID int) (*catalog.Chapter, error) {
	if e.loading {
		return nil, ErrLoading
	}
	ch := e.cat.Chapter(chapterID)
	if ch == nil {
		return nil, ErrUnknownChapter
	}
	if !e.unlockedLocked(chapterID) {
		return nil, ErrChapterLocked
	}
	return ch, nil
}

// FlipCard marks a flashcard flipped and awards FlipPoints. Flipping an
// already flipped card changes nothing and reports false.
func (e *Engine) FlipCard(chapterID, cardID int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.playableChapter(chapterID)
	if err != nil {
		return false, err
	}
	if ch.Card(cardID) == nil {
		return false, ErrUnknownCard
	}

	l := e.st.ledger(chapterID)
	if l.card(cardID) == CardFlipped {
		return false, nil
	}
	l.cards[cardID] = CardFlipped
	e.st.snap.Points += FlipPoints
	e.touch()
	e.evaluateCompletionLocked(ch)
	return true, nil
}

// AnswerQuestion records an answer and reports whether it was correct.
// A question can be answered once; repeating returns the recorded outcome
// without any change.
func (e *Engine) AnswerQuestion(chapterID, questionID, answerIndex int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.playableChapter(chapterID)
	if err != nil {
		return false, err
	}
	q := ch.Question(questionID)
	if q == nil {
		return false, ErrUnknownQuestion
	}

	l := e.st.ledger(chapterID)
	if prev := l.question(questionID); prev.Answered() {
		return prev.Correct(), nil
	}
	if answerIndex < 0 || answerIndex >= len(q.Options) {
		return false, ErrInvalidAnswer
	}

	correct := answerIndex == q.Answer
	if correct {
		l.questions[questionID] = AnsweredCorrect
		e.st.snap.Points += CorrectPoints
	} else {
		l.questions[questionID] = AnsweredIncorrect
	}
	l.recompute(e.now())
	e.touch()
	e.evaluateCompletionLocked(ch)
	return correct, nil
}

// evaluateCompletionLocked completes ch when every card is flipped and
// every question answered correctly. Callers hold e.mu.
func (e *Engine) evaluateCompletionLocked(ch *catalog.Chapter) {
	snap := &e.st.snap
	if snap.ChapterCompleted(ch.ID) {
		return
	}
	if !allActivitiesDone(ch, e.st.chapters[ch.ID]) || !allCorrect(ch, e.st.chapters[ch.ID]) {
		return
	}

	snap.CompletedChapters = append(snap.CompletedChapters, ch.ID)
	snap.CurrentChapter = max(snap.CurrentChapter, min(ch.ID+1, e.cat.ChapterCount()))
	snap.Points += CompletionPoints
	e.touch()
	e.logger.Debug("chapter completed", "chapter", ch.ID, "identity", e.userID)
}

func allActivitiesDone(ch *catalog.Chapter, l *chapterLedger) bool {
	if l == nil {
		return false
	}
	for _, c := range ch.Flashcards {
		if l.card(c.ID) != CardFlipped {
			return false
		}
	}
	for _, q := range ch.Questions {
		if !l.question(q.ID).Answered() {
			return false
		}
	}
	return true
}

func allCorrect(ch *catalog.Chapter, l *chapterLedger) bool {
	if l == nil {
		return false
	}
	for _, q := range ch.Questions {
		if !l.question(q.ID).Correct() {
			return false
		}
	}
	return true
}

// RedoChapter clears a chapter's ledger so it can be played again. The
// chapter loses its completion and the unlock frontier moves back to it if
// it had moved past.
func (e *Engine) RedoChapter(chapterID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loading {
		return ErrLoading
	}
	if e.cat.Chapter(chapterID) == nil {
		return ErrUnknownChapter
	}

	e.st.ledger(chapterID).reset()
	snap := &e.st.snap
	snap.CompletedChapters = slices.DeleteFunc(snap.CompletedChapters, func(id int) bool { return id == chapterID })
	snap.CurrentChapter = min(snap.CurrentChapter, chapterID)
	e.touch()
	return nil
}

// BuyEgg spends cost points on one egg. It reports false, changing
// nothing, when the learner cannot afford it or cost is not positive.
func (e *Engine) BuyEgg(cost int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loading || cost <= 0 || e.st.snap.Points < cost {
		return false
	}
	e.st.snap.Points -= cost
	e.st.snap.Eggs++
	e.touch()
	return true
}

// HatchEgg spends one egg on a random uncollected creature. The tier is
// drawn by hatch weight; if that tier has nothing left the first
// uncollected creature in catalog order is used instead. It returns nil,
// changing nothing, when there are no eggs or nothing left to collect.
func (e *Engine) HatchEgg() *catalog.Creature {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &e.st.snap
	if e.loading || snap.Eggs == 0 {
		return nil
	}

	var fallback *catalog.Creature
	for i := range e.cat.Creatures() {
		c := &e.cat.Creatures()[i]
		if !snap.HasCreature(c.ID) {
			fallback = c
			break
		}
	}
	if fallback == nil {
		return nil
	}

	tier := catalog.DrawRarity(e.rng.Float64())
	var pool []*catalog.Creature
	for _, c := range e.cat.CreaturesByRarity(tier) {
		if !snap.HasCreature(c.ID) {
			pool = append(pool, c)
		}
	}
	chosen := fallback
	if len(pool) > 0 {
		chosen = pool[e.rng.IntN(len(pool))]
	}

	snap.Eggs--
	snap.CollectedCreatures = append(snap.CollectedCreatures, chosen.ID)
	e.touch()
	return chosen
}

// SubmitProject validates code for a project and, when it passes, marks
// the project completed, awards its points and keeps the code. Submitting
// an already completed project reports false without validating.
// Validation runs without holding the engine lock.
func (e *Engine) SubmitProject(ctx context.Context, projectID int, code string) (bool, error) {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return false, ErrLoading
	}
	p := e.cat.Project(projectID)
	if p == nil {
		e.mu.Unlock()
		return false, ErrUnknownProject
	}
	if !e.projectUnlockedLocked(projectID) {
		e.mu.Unlock()
		return false, ErrProjectLocked
	}
	if e.st.snap.ProjectCompleted(projectID) {
		e.mu.Unlock()
		return false, nil
	}
	epoch := e.epoch
	e.mu.Unlock()

	if !e.validator.Validate(ctx, p, code) {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return false, ErrIdentityChanged
	}
	snap := &e.st.snap
	if snap.ProjectCompleted(projectID) {
		return false, nil
	}
	snap.CompletedProjects = append(snap.CompletedProjects, projectID)
	snap.Points += p.Points
	if snap.SubmittedCode == nil {
		snap.SubmittedCode = map[int]string{}
	}
	snap.SubmittedCode[projectID] = code
	e.touch()
	return true, nil
}

// AchieverStatus returns the chapter's classification, or false before
// its first answer.
func (e *Engine) AchieverStatus(chapterID int) (AchieverStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.st.chapters[chapterID]
	if l == nil || l.perf == nil {
		return "", false
	}
	return l.perf.Status, true
}

// Performance returns the chapter's quiz summary, or nil before its first
// answer.
func (e *Engine) Performance(chapterID int) *Performance {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.st.chapters[chapterID]
	if l == nil || l.perf == nil {
		return nil
	}
	p := *l.perf
	return &p
}

// Snapshot returns a copy of the account state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.snap.clone()
}

// Record returns the aggregate in its persisted form.
func (e *Engine) Record() *store.ProgressRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.record()
}

// Dirty reports whether there are changes not yet written to the save
// target.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rev != e.savedRev
}

// Identity returns the user whose progress is held, "" when anonymous.
func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Loading reports whether a Load is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}
