package progress

import (
	"github.com/abhisek/pyquest/internal/catalog"
)

// GameView is the catalog overlaid with the learner's state. It is
// projected on demand and owns no state of its own.
type GameView struct {
	Points         int
	Eggs           int
	CurrentChapter int
	Chapters       []ChapterView
	Creatures      []CreatureView
	Projects       []ProjectView
}

type ChapterView struct {
	Chapter   *catalog.Chapter
	Unlocked  bool
	Completed bool
	// NeedsRedo is set when every activity is done but not every answer
	// was correct; only RedoChapter can move the chapter on.
	NeedsRedo   bool
	Cards       []CardView
	Questions   []QuestionView
	Performance *Performance
	QuizResets  int
}

type CardView struct {
	Card    *catalog.FlashCard
	Flipped bool
}

type QuestionView struct {
	Question *catalog.Question
	State    QuestionState
}

type CreatureView struct {
	Creature  *catalog.Creature
	Collected bool
}

type ProjectView struct {
	Project       *catalog.Project
	Unlocked      bool
	Completed     bool
	SubmittedCode string
}

// FlippedCount returns how many of the chapter's cards are flipped.
func (v ChapterView) FlippedCount() int {
	n := 0
	for _, c := range v.Cards {
		if c.Flipped {
			n++
		}
	}
	return n
}

// AnsweredCount returns how many of the chapter's questions are answered.
func (v ChapterView) AnsweredCount() int {
	n := 0
	for _, q := range v.Questions {
		if q.State.Answered() {
			n++
		}
	}
	return n
}

// CollectedCount returns how many creatures the learner owns.
func (v *GameView) CollectedCount() int {
	n := 0
	for _, c := range v.Creatures {
		if c.Collected {
			n++
		}
	}
	return n
}

// Chapter returns the view of one chapter, or nil.
func (v *GameView) Chapter(id int) *ChapterView {
	for i := range v.Chapters {
		if v.Chapters[i].Chapter.ID == id {
			return &v.Chapters[i]
		}
	}
	return nil
}

// Project returns the view of one project, or nil.
func (v *GameView) Project(id int) *ProjectView {
	for i := range v.Projects {
		if v.Projects[i].Project.ID == id {
			return &v.Projects[i]
		}
	}
	return nil
}

// View projects the current state over the catalog.
func (e *Engine) View() *GameView {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &e.st.snap
	v := &GameView{
		Points:         snap.Points,
		Eggs:           snap.Eggs,
		CurrentChapter: snap.CurrentChapter,
	}

	chapters := e.cat.Chapters()
	v.Chapters = make([]ChapterView, 0, len(chapters))
	for i := range chapters {
		ch := &chapters[i]
		l := e.st.chapters[ch.ID]
		cv := ChapterView{
			Chapter:   ch,
			Unlocked:  e.unlockedLocked(ch.ID),
			Completed: snap.ChapterCompleted(ch.ID),
		}
		for j := range ch.Flashcards {
			card := &ch.Flashcards[j]
			cv.Cards = append(cv.Cards, CardView{Card: card, Flipped: l != nil && l.card(card.ID) == CardFlipped})
		}
		for j := range ch.Questions {
			q := &ch.Questions[j]
			st := Unanswered
			if l != nil {
				st = l.question(q.ID)
			}
			cv.Questions = append(cv.Questions, QuestionView{Question: q, State: st})
		}
		if l != nil {
			if l.perf != nil {
				p := *l.perf
				cv.Performance = &p
			}
			cv.QuizResets = l.quizResets
		}
		cv.NeedsRedo = !cv.Completed && allActivitiesDone(ch, l) && !allCorrect(ch, l)
		v.Chapters = append(v.Chapters, cv)
	}

	creatures := e.cat.Creatures()
	v.Creatures = make([]CreatureView, 0, len(creatures))
	for i := range creatures {
		c := &creatures[i]
		v.Creatures = append(v.Creatures, CreatureView{Creature: c, Collected: snap.HasCreature(c.ID)})
	}

	projects := e.cat.Projects()
	v.Projects = make([]ProjectView, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		v.Projects = append(v.Projects, ProjectView{
			Project:       p,
			Unlocked:      e.projectUnlockedLocked(p.ID),
			Completed:     snap.ProjectCompleted(p.ID),
			SubmittedCode: snap.SubmittedCode[p.ID],
		})
	}
	return v
}
