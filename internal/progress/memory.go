package progress

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/abhisek/pyquest/internal/store"
)

// memoryBackend keeps records in process memory. It is the local backend
// when none is configured.
type memoryBackend struct {
	mu   sync.Mutex
	recs map[string]*store.ProgressRecord
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{recs: map[string]*store.ProgressRecord{}}
}

func (m *memoryBackend) Name() string { return "memory" }

func (m *memoryBackend) Load(_ context.Context, userID string) (*store.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[userID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (m *memoryBackend) Save(_ context.Context, userID string, rec *store.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[userID] = cloneRecord(rec)
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, userID)
	return nil
}

func cloneRecord(rec *store.ProgressRecord) *store.ProgressRecord {
	p := rec.Progress
	out := &store.ProgressRecord{
		Progress: store.ProgressData{
			Points:             p.Points,
			CurrentChapter:     p.CurrentChapter,
			CompletedChapters:  slices.Clone(p.CompletedChapters),
			CollectedCreatures: slices.Clone(p.CollectedCreatures),
			Eggs:               p.Eggs,
			CompletedProjects:  slices.Clone(p.CompletedProjects),
			SubmittedCode:      maps.Clone(p.SubmittedCode),
		},
		Chapters: make(map[int]store.ChapterRecord, len(rec.Chapters)),
	}
	for id, cr := range rec.Chapters {
		c := store.ChapterRecord{
			Flashcards: maps.Clone(cr.Flashcards),
			Questions:  maps.Clone(cr.Questions),
			QuizResets: cr.QuizResets,
		}
		if cr.Performance != nil {
			perf := *cr.Performance
			c.Performance = &perf
		}
		out.Chapters[id] = c
	}
	return out
}
