package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/pyquest/internal/identity"
	"github.com/abhisek/pyquest/internal/store"
)

// remoteApplies reports whether userID's progress belongs in the remote
// store.
func (e *Engine) remoteApplies(userID string) bool {
	return e.remote != nil && userID != ""
}

// target is the backend a save for userID goes to.
func (e *Engine) target(userID string) store.Backend {
	if e.remoteApplies(userID) {
		return e.remote
	}
	return e.local
}

// Load replaces the held progress with userID's ("" for anonymous). The
// remote record wins when there is one; otherwise the device's local copy
// is adopted, and failing that the defaults. Commands issued while a load
// is in flight fail with ErrLoading. A load superseded by a later one is
// discarded when it completes.
func (e *Engine) Load(ctx context.Context, userID string) error {
	e.mu.Lock()
	e.loadSeq++
	e.epoch++
	seq := e.loadSeq
	e.loading = true
	e.mu.Unlock()

	st, dirty := e.fetch(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.loadSeq {
		e.logger.Warn("discarding superseded progress load", "identity", userID)
		return nil
	}
	e.loading = false
	if err := ctx.Err(); err != nil {
		return err
	}

	e.st = st
	e.userID = userID
	e.rev++
	e.savedRev = e.rev
	if dirty {
		e.savedRev--
	}
	e.logger.Debug("progress loaded", "identity", userID, "points", st.snap.Points, "dirty", dirty)
	return nil
}

// fetch resolves the state to adopt for userID and whether it still needs
// writing to the save target.
func (e *Engine) fetch(ctx context.Context, userID string) (state, bool) {
	n := e.cat.ChapterCount()

	remoteEmpty := false
	if e.remoteApplies(userID) {
		rec, err := e.remote.Load(ctx, userID)
		switch {
		case err != nil:
			e.logger.Warn("remote progress load failed, falling back to local",
				"identity", userID, "backend", e.remote.Name(), "err", err)
		case rec != nil:
			return stateFromRecord(rec, n), false
		default:
			remoteEmpty = true
		}
	}

	rec, err := e.local.Load(ctx, userID)
	if err != nil {
		e.logger.Warn("local progress load failed, starting fresh",
			"identity", userID, "backend", e.local.Name(), "err", err)
	} else if rec != nil {
		// A reachable remote without a record gets the local copy on the
		// next flush.
		return stateFromRecord(rec, n), remoteEmpty
	}

	st := defaultState()
	if remoteEmpty {
		if err := e.remote.Save(ctx, userID, st.record()); err != nil {
			e.logger.Warn("initial remote progress record failed",
				"identity", userID, "backend", e.remote.Name(), "err", err)
			return st, true
		}
	}
	return st, false
}

// markSavedLocked clears dirty if nothing changed since rev was captured in load
// generation gen. Callers hold e.mu.
func (e *Engine) markSavedLocked(gen, rev uint64) {
	if e.loadSeq == gen && rev > e.savedRev {
		e.savedRev = rev
	}
}

// capture returns the state to write, or ok=false when there is nothing
// to write.
func (e *Engine) capture() (rec *store.ProgressRecord, userID string, gen, rev uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading || e.rev == e.savedRev {
		return nil, "", 0, 0, false
	}
	return e.st.record(), e.userID, e.loadSeq, e.rev, true
}

// Flush writes unsaved progress to the save target: the remote store for a
// signed-in learner when one is configured, the local store otherwise. A
// remote failure falls back to a local write and leaves the progress dirty
// so a later flush retries the remote. Flushes are serialized; one that
// finds nothing new to write returns immediately.
func (e *Engine) Flush(ctx context.Context) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	if e.Loading() {
		return ErrLoading
	}
	rec, userID, gen, rev, ok := e.capture()
	if !ok {
		return nil
	}

	target := e.target(userID)
	if err := target.Save(ctx, userID, rec); err != nil {
		if target == e.local {
			return fmt.Errorf("save progress: %w", err)
		}
		e.logger.Warn("remote progress save failed, writing locally",
			"identity", userID, "backend", target.Name(), "err", err)
		if err := e.local.Save(ctx, userID, rec); err != nil {
			return fmt.Errorf("save progress locally: %w", err)
		}
		return nil
	}

	e.mu.Lock()
	e.markSavedLocked(gen, rev)
	e.mu.Unlock()
	e.logger.Debug("progress saved", "identity", userID, "backend", target.Name())
	return nil
}

// FlushOnExit saves before the process ends. The local store is always
// written first; the remote write that follows is best effort.
func (e *Engine) FlushOnExit(ctx context.Context) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	rec, userID, gen, rev, ok := e.capture()
	if !ok {
		return nil
	}

	localErr := e.local.Save(ctx, userID, rec)
	target := e.target(userID)
	if target == e.local {
		if localErr != nil {
			return fmt.Errorf("save progress: %w", localErr)
		}
		e.mu.Lock()
		e.markSavedLocked(gen, rev)
		e.mu.Unlock()
		return nil
	}

	if err := target.Save(ctx, userID, rec); err != nil {
		e.logger.Warn("remote progress save on exit failed",
			"identity", userID, "backend", target.Name(), "err", err)
	} else {
		e.mu.Lock()
		e.markSavedLocked(gen, rev)
		e.mu.Unlock()
	}
	if localErr != nil {
		return fmt.Errorf("save progress locally: %w", localErr)
	}
	return nil
}

// ResetProgress discards all progress. The local copy is cleared and, for
// a signed-in learner with a remote store, the remote record is deleted
// and recreated with defaults. If the remote cannot be reset the defaults
// stay dirty so the next flush overwrites it.
func (e *Engine) ResetProgress(ctx context.Context) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return ErrLoading
	}
	e.st = defaultState()
	e.epoch++
	e.rev++
	e.savedRev = e.rev
	userID, gen := e.userID, e.loadSeq
	e.mu.Unlock()

	var errs []error
	if err := e.local.Delete(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("clear local progress: %w", err))
	}

	if e.remoteApplies(userID) {
		err := e.remote.Delete(ctx, userID)
		if err == nil {
			def := defaultState()
			err = e.remote.Save(ctx, userID, def.record())
		}
		if err != nil {
			e.logger.Warn("remote progress reset failed",
				"identity", userID, "backend", e.remote.Name(), "err", err)
			e.mu.Lock()
			if e.loadSeq == gen {
				e.rev++
			}
			e.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

// Follow loads the matching progress on every identity change until ctx is
// done or events is closed. Run it in its own goroutine.
func (e *Engine) Follow(ctx context.Context, events <-chan identity.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			userID := ""
			if ev.Kind == identity.SignedIn && ev.User != nil {
				userID = ev.User.ID
			}
			if err := e.Load(ctx, userID); err != nil {
				e.logger.Warn("progress load after identity change failed",
					"identity", userID, "event", ev.Kind, "err", err)
			}
		}
	}
}
