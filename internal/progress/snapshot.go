package progress

import (
	"maps"
	"slices"

	"github.com/abhisek/pyquest/internal/store"
)

// Snapshot is the compact account state. Values returned by the engine
// are copies.
type Snapshot struct {
	Points             int
	CurrentChapter     int
	CompletedChapters  []int
	CollectedCreatures []int
	Eggs               int
	CompletedProjects  []int
	// SubmittedCode holds the last passing submission per project.
	SubmittedCode map[int]string
}

func defaultSnapshot() Snapshot {
	return Snapshot{
		CurrentChapter:     1,
		CompletedChapters:  []int{},
		CollectedCreatures: []int{},
		CompletedProjects:  []int{},
	}
}

func (s Snapshot) clone() Snapshot {
	s.CompletedChapters = slices.Clone(s.CompletedChapters)
	s.CollectedCreatures = slices.Clone(s.CollectedCreatures)
	s.CompletedProjects = slices.Clone(s.CompletedProjects)
	s.SubmittedCode = maps.Clone(s.SubmittedCode)
	return s
}

// ChapterCompleted reports membership in CompletedChapters.
func (s Snapshot) ChapterCompleted(id int) bool { return slices.Contains(s.CompletedChapters, id) }

// HasCreature reports membership in CollectedCreatures.
func (s Snapshot) HasCreature(id int) bool { return slices.Contains(s.CollectedCreatures, id) }

// ProjectCompleted reports membership in CompletedProjects.
func (s Snapshot) ProjectCompleted(id int) bool { return slices.Contains(s.CompletedProjects, id) }

// state is the single authoritative aggregate: snapshot plus ledger.
type state struct {
	snap     Snapshot
	chapters map[int]*chapterLedger
}

func defaultState() state {
	return state{snap: defaultSnapshot(), chapters: map[int]*chapterLedger{}}
}

func (st *state) ledger(chapterID int) *chapterLedger {
	l, ok := st.chapters[chapterID]
	if !ok {
		l = newChapterLedger()
		st.chapters[chapterID] = l
	}
	return l
}

func (st *state) record() *store.ProgressRecord {
	s := st.snap
	rec := &store.ProgressRecord{
		Progress: store.ProgressData{
			Points:             s.Points,
			CurrentChapter:     s.CurrentChapter,
			CompletedChapters:  slices.Clone(s.CompletedChapters),
			CollectedCreatures: slices.Clone(s.CollectedCreatures),
			Eggs:               s.Eggs,
			CompletedProjects:  slices.Clone(s.CompletedProjects),
			SubmittedCode:      maps.Clone(s.SubmittedCode),
		},
		Chapters: map[int]store.ChapterRecord{},
	}
	for id, l := range st.chapters {
		if !l.empty() {
			rec.Chapters[id] = l.record()
		}
	}
	return rec
}

// stateFromRecord rebuilds the aggregate from a persisted record, clamping
// values that would break the engine's invariants.
func stateFromRecord(rec *store.ProgressRecord, chapterCount int) state {
	p := rec.Progress
	st := state{
		snap: Snapshot{
			Points:             max(p.Points, 0),
			CurrentChapter:     min(max(p.CurrentChapter, 1), max(chapterCount, 1)),
			CompletedChapters:  dedupe(p.CompletedChapters),
			CollectedCreatures: dedupe(p.CollectedCreatures),
			Eggs:               max(p.Eggs, 0),
			CompletedProjects:  dedupe(p.CompletedProjects),
		},
		chapters: map[int]*chapterLedger{},
	}
	if len(p.SubmittedCode) > 0 {
		st.snap.SubmittedCode = maps.Clone(p.SubmittedCode)
	}
	for id, cr := range rec.Chapters {
		st.chapters[id] = ledgerFromRecord(cr)
	}
	return st
}

// dedupe returns a non-nil copy of ids without repeats, keeping first
// occurrences in order.
func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
