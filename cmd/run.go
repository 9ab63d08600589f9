package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/catalog"
	"github.com/abhisek/pyquest/internal/feedback"
	"github.com/abhisek/pyquest/internal/identity"
	"github.com/abhisek/pyquest/internal/llm"
	"github.com/abhisek/pyquest/internal/progress"
	"github.com/abhisek/pyquest/internal/store"
	"github.com/abhisek/pyquest/internal/validator"
)

// exitTimeout bounds the save performed when a command finishes.
const exitTimeout = 15 * time.Second

// app holds the services a command works with.
type app struct {
	store     *store.Store
	remote    *store.Remote // nil in local-only mode
	catalog   *catalog.Catalog
	identity  *identity.Service
	engine    *progress.Engine
	validator *validator.Validator
}

// openApp opens the stores, restores the saved session and loads the
// matching progress.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{store: st, validator: validator.New()}
	if a.catalog, err = loadCatalog(); err != nil {
		st.Close()
		return nil, err
	}

	remote, err := store.OpenRemote(ctx, cfg.RemoteDriver, cfg.RemoteDSN, logger)
	switch {
	case errors.Is(err, store.ErrNotConfigured):
	case err != nil:
		logger.Warn("remote store unavailable", "driver", cfg.RemoteDriver, "err", err)
		fmt.Fprintln(os.Stderr, "Remote progress database unavailable; playing offline.")
	default:
		a.remote = remote
	}

	var accounts store.AccountRepo
	if a.remote != nil {
		accounts = a.remote.Accounts()
	}
	a.identity, err = identity.New(ctx, accounts, st, identity.Options{
		Secret: cfg.JWTSecret,
		TTL:    cfg.SessionTTL,
		Logger: logger,
	})
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("identity: %w", err)
	}

	user, err := a.identity.Restore(ctx)
	switch {
	case errors.Is(err, identity.ErrSessionExpired):
		fmt.Fprintln(os.Stderr, "Your session expired; sign in again with `pyquest account login`.")
	case err != nil:
		logger.Warn("restoring session failed", "err", err)
	}

	opts := []progress.Option{
		progress.WithLocal(st.Local()),
		progress.WithValidator(a.validator),
		progress.WithLogger(logger),
	}
	if a.remote != nil {
		opts = append(opts, progress.WithRemote(a.remote))
	}
	a.engine = progress.New(a.catalog, opts...)

	userID := ""
	if user != nil {
		userID = user.ID
	}
	if err := a.engine.Load(ctx, userID); err != nil {
		a.closeStores()
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return a, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

// feedbackGenerator builds the feedback generator. Without a configured model it
// runs on canned text.
func (a *app) feedbackGenerator(ctx context.Context) *feedback.Generator {
	provider, err := llm.NewProviderFromEnv(ctx, a.store.EventRepo(), logger)
	if err != nil {
		logger.Warn("LLM provider not configured", "err", err)
		fmt.Fprintln(os.Stderr, "AI feedback unavailable:", err)
		provider = nil
	}
	return feedback.New(provider, feedback.DefaultConfig(), logger)
}

// Close saves progress and closes the stores. The save outlives a canceled
// command context so an interrupt still persists the session.
func (a *app) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exitTimeout)
	defer cancel()
	err := a.engine.FlushOnExit(ctx)
	return errors.Join(err, a.closeStores())
}

func (a *app) closeStores() error {
	var errs []error
	if a.remote != nil {
		errs = append(errs, a.remote.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// withApp runs fn with an open app and saves afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(cmd.Context()); cerr != nil {
			err = errors.Join(err, fmt.Errorf("save progress: %w", cerr))
		}
	}()
	return fn(a)
}

// who describes the current learner for status lines.
func (a *app) who() string {
	if u := a.identity.Current(); u != nil {
		return u.Email
	}
	return "guest (progress saved on this device)"
}
