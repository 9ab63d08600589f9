package progress

import (
	"maps"
	"time"

	"github.com/abhisek/pyquest/internal/store"
)

// CardState is the learner's state for one flashcard.
type CardState uint8

const (
	CardUnseen CardState = iota
	CardFlipped
)

// QuestionState is the learner's state for one question.
type QuestionState uint8

const (
	Unanswered QuestionState = iota
	AnsweredCorrect
	AnsweredIncorrect
)

func (q QuestionState) Answered() bool { return q != Unanswered }
func (q QuestionState) Correct() bool  { return q == AnsweredCorrect }

// Performance summarizes a chapter's answered questions.
type Performance struct {
	TotalAnswered int
	CorrectCount  int
	Status        AchieverStatus
	LastUpdated   time.Time
}

// chapterLedger records per-item state for one chapter. Absent map entries
// are CardUnseen / Unanswered.
type chapterLedger struct {
	cards      map[int]CardState
	questions  map[int]QuestionState
	perf       *Performance // nil until the first answer
	quizResets int
}

func newChapterLedger() *chapterLedger {
	return &chapterLedger{
		cards:     map[int]CardState{},
		questions: map[int]QuestionState{},
	}
}

func (l *chapterLedger) card(id int) CardState         { return l.cards[id] }
func (l *chapterLedger) question(id int) QuestionState { return l.questions[id] }

// recompute rebuilds perf from the full question ledger.
func (l *chapterLedger) recompute(now time.Time) {
	var total, correct int
	for _, q := range l.questions {
		if q.Answered() {
			total++
		}
		if q.Correct() {
			correct++
		}
	}
	if total == 0 {
		l.perf = nil
		return
	}
	l.perf = &Performance{
		TotalAnswered: total,
		CorrectCount:  correct,
		Status:        ClassifyAchiever(correct),
		LastUpdated:   now,
	}
}

// reset empties the item ledger and counts the redo.
func (l *chapterLedger) reset() {
	clear(l.cards)
	clear(l.questions)
	l.perf = nil
	l.quizResets++
}

func (l *chapterLedger) empty() bool {
	return len(l.cards) == 0 && len(l.questions) == 0 && l.perf == nil && l.quizResets == 0
}

func (l *chapterLedger) clone() *chapterLedger {
	c := &chapterLedger{
		cards:      maps.Clone(l.cards),
		questions:  maps.Clone(l.questions),
		quizResets: l.quizResets,
	}
	if l.perf != nil {
		p := *l.perf
		c.perf = &p
	}
	return c
}

func (l *chapterLedger) record() store.ChapterRecord {
	var rec store.ChapterRecord
	for id, s := range l.cards {
		if s == CardFlipped {
			if rec.Flashcards == nil {
				rec.Flashcards = map[int]bool{}
			}
			rec.Flashcards[id] = true
		}
	}
	for id, s := range l.questions {
		if !s.Answered() {
			continue
		}
		if rec.Questions == nil {
			rec.Questions = map[int]store.QuestionRecord{}
		}
		rec.Questions[id] = store.QuestionRecord{Answered: true, Correct: s.Correct()}
	}
	if l.perf != nil {
		rec.Performance = &store.PerformanceRecord{
			TotalQuestionsAnswered: l.perf.TotalAnswered,
			CorrectQuestionsCount:  l.perf.CorrectCount,
			AchieverStatus:         string(l.perf.Status),
			LastUpdated:            l.perf.LastUpdated,
		}
	}
	rec.QuizResets = l.quizResets
	return rec
}

func ledgerFromRecord(rec store.ChapterRecord) *chapterLedger {
	l := newChapterLedger()
	for id, flipped := range rec.Flashcards {
		if flipped {
			l.cards[id] = CardFlipped
		}
	}
	for id, q := range rec.Questions {
		switch {
		case !q.Answered:
		case q.Correct:
			l.questions[id] = AnsweredCorrect
		default:
			l.questions[id] = AnsweredIncorrect
		}
	}
	if p := rec.Performance; p != nil {
		status, ok := parseAchiever(p.AchieverStatus)
		if !ok {
			status = ClassifyAchiever(p.CorrectQuestionsCount)
		}
		l.perf = &Performance{
			TotalAnswered: p.TotalQuestionsAnswered,
			CorrectCount:  p.CorrectQuestionsCount,
			Status:        status,
			LastUpdated:   p.LastUpdated,
		}
	}
	l.quizResets = max(rec.QuizResets, 0)
	return l
}
