package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Local storage keys. The progress blob and the chapter ledger are kept
// under separate keys, scoped to the device rather than to a user.
const (
	KeyProgress = "pyquest-progress"
	KeyChapters = KeyProgress + "_chapters"
)

// LocalBackend persists progress in the on-device key-value table. The
// userID argument is ignored: the device holds a single progress record.
type LocalBackend struct {
	kv *Store
}

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Load implements Backend.
func (b *LocalBackend) Load(ctx context.Context, _ string) (*ProgressRecord, error) {
	raw, ok, err := b.kv.Get(ctx, KeyProgress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rec := &ProgressRecord{Chapters: map[int]ChapterRecord{}}
	if err := json.Unmarshal([]byte(raw), &rec.Progress); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyProgress, err)
	}

	rawChapters, ok, err := b.kv.Get(ctx, KeyChapters)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal([]byte(rawChapters), &rec.Chapters); err != nil {
			// A damaged ledger must not hide the snapshot.
			b.kv.logger.Warn("discarding unreadable chapter ledger",
				"backend", b.Name(), "err", err)
			rec.Chapters = map[int]ChapterRecord{}
		}
	}
	return rec, nil
}

// Save implements Backend. Both keys are written in one transaction.
func (b *LocalBackend) Save(ctx context.Context, _ string, rec *ProgressRecord) error {
	progress, err := json.Marshal(rec.Progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	chapters, err := json.Marshal(rec.Chapters)
	if err != nil {
		return fmt.Errorf("encode chapters: %w", err)
	}
	return b.kv.PutMany(ctx, map[string]string{
		KeyProgress: string(progress),
		KeyChapters: string(chapters),
	})
}

// Delete implements Backend.
func (b *LocalBackend) Delete(ctx context.Context, _ string) error {
	return b.kv.Remove(ctx, KeyProgress, KeyChapters)
}
