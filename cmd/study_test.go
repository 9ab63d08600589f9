package cmd

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pyquest/internal/catalog"
	"github.com/abhisek/pyquest/internal/identity"
	"github.com/abhisek/pyquest/internal/progress"
	"github.com/abhisek/pyquest/internal/store"
	"github.com/abhisek/pyquest/internal/validator"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "local.db"), nil)
	require.NoError(t, err)
	remote, err := store.OpenRemote(ctx, store.DriverSQLite, filepath.Join(dir, "remote.db"), nil)
	require.NoError(t, err)

	a := &app{store: st, remote: remote, catalog: catalog.Default(), validator: validator.New()}
	t.Cleanup(func() { a.closeStores() })

	a.identity, err = identity.New(ctx, remote.Accounts(), st, identity.Options{
		Secret: "test-secret-0123456789",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	a.engine = progress.New(a.catalog, progress.WithLocal(st.Local()), progress.WithRemote(remote))
	require.NoError(t, a.engine.Load(ctx, ""))
	return a
}

func studyWith(a *app, input string) *studySession {
	return &studySession{app: a, in: bufio.NewScanner(strings.NewReader(input))}
}

func TestStudyLoginLoadsBeforeReturning(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	u, err := switchAccount(ctx, a, "ada@example.com", "hunter22", true)
	require.NoError(t, err)
	require.NoError(t, signOut(ctx, a))
	assert.Equal(t, "", a.engine.Identity())

	ok, err := a.engine.FlipCard(1, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, studyWith(a, "hunter22\n").run(ctx, "login", []string{"ada@example.com"}))
	assert.Equal(t, u.ID, a.engine.Identity())
	assert.False(t, a.engine.Loading())

	// The next command lands on the account's progress and is kept.
	ok, err = a.engine.FlipCard(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, a.engine.Dirty())
	assert.Equal(t, u.ID, a.engine.Identity())
}

func TestStudyLogoutSwitchesToGuest(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	require.NoError(t, studyWith(a, "hunter22\n").run(ctx, "signup", []string{"ada@example.com"}))
	require.NotEmpty(t, a.engine.Identity())

	require.NoError(t, studyWith(a, "").run(ctx, "logout", nil))
	assert.Equal(t, "", a.engine.Identity())
	assert.False(t, a.engine.Loading())
	assert.Nil(t, a.identity.Current())
}

func TestStudyLoginRefusedWhenSignedIn(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	u, err := switchAccount(ctx, a, "ada@example.com", "hunter22", true)
	require.NoError(t, err)

	err = studyWith(a, "hunter22\n").run(ctx, "login", []string{"ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, u.ID, a.engine.Identity())
}
