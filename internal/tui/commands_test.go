package tui

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gmconsole/internal/api"
	"gmconsole/internal/config"
	"gmconsole/internal/dice"
	"gmconsole/internal/journal"
	"gmconsole/internal/modal"
	"gmconsole/internal/session"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, journal.Migrate(db))

	cfg := config.Config{UI: config.UIConfig{StartTab: "dice"}}
	return New(context.Background(), cfg, Deps{
		Client:  api.New("http://127.0.0.1:1", time.Second),
		Lock:    session.NewLock(),
		Arbiter: modal.NewArbiter(),
		Journal: journal.NewJournal(db),
		Roller:  dice.New(rand.NewSource(1)),
	})
}

func TestRollPersistsBeforeHistoryReload(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	// the roll command returns only after the insert committed
	msg := a.rollCmd("2d6+1", dice.ModeNormal)()
	changed, ok := msg.(changedMsg)
	require.True(t, ok, "roll must report a completed mutation, got %T", msg)
	require.Equal(t, "rolls", changed.what)
	require.Contains(t, changed.note, "2d6+1")

	// the reload it triggers already sees the new roll
	_, next := a.Update(changed)
	require.NotNil(t, next)
	reloaded, ok := next().(rollsMsg)
	require.True(t, ok)
	require.Len(t, reloaded, 1)
	require.Equal(t, "2d6+1", reloaded[0].Spec)
}

func TestRollRejectsBadExpression(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	msg := a.rollCmd("banana", dice.ModeNormal)()
	_, ok := msg.(errMsg)
	require.True(t, ok, "bad expressions surface as errors, got %T", msg)
}
