package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const autosaveTimeout = 30 * time.Second

// Autosaver flushes the engine periodically while an interactive session
// runs.
type Autosaver struct {
	engine    *Engine
	interval  time.Duration
	logger    *slog.Logger
	scheduler *gocron.Scheduler
}

// NewAutosaver creates an autosaver. A non-positive interval disables it.
func NewAutosaver(e *Engine, interval time.Duration, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Autosaver{
		engine:    e,
		interval:  interval,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the first save one interval from now.
func (a *Autosaver) Start() error {
	if a.interval <= 0 {
		return nil
	}
	_, err := a.scheduler.Every(a.interval).WaitForSchedule().SingletonMode().Do(a.save)
	if err != nil {
		return err
	}
	a.scheduler.StartAsync()
	return nil
}

// Stop cancels future saves. It does not flush.
func (a *Autosaver) Stop() {
	a.scheduler.Stop()
}

func (a *Autosaver) save() {
	if !a.engine.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := a.engine.Flush(ctx); err != nil {
		a.logger.Warn("autosave failed", "identity", a.engine.Identity(), "err", err)
		return
	}
	a.logger.Debug("autosaved", "identity", a.engine.Identity())
}
