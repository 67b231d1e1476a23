package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gmconsole/internal/dice"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	t.Log("migrations applied")
	return NewJournal(db)
}

func TestMigrateLeavesDatabaseOpen(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, db.Ping(), "migration must not close the shared handle")

	// running again on a current schema is a no-op
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Ping())
}

func TestJournalRolls(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	j := openTestJournal(t)

	roll := dice.Roll{
		Spec:    dice.Spec{Count: 2, Sides: 6, Modifier: 1},
		Results: []int{4, 6},
		Total:   11,
	}
	id, err := j.AddRoll(ctx, roll)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	second := dice.Roll{
		Spec:    dice.Spec{Count: 1, Sides: 20},
		Results: []int{17},
		Total:   17,
	}
	_, err = j.AddRoll(ctx, second)
	require.NoError(t, err)

	rolls, err := j.RecentRolls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rolls, 2)
	for _, r := range rolls {
		require.NotEmpty(t, r.Spec)
		require.NotEmpty(t, r.Results)
		require.False(t, r.RolledAt.IsZero())
	}

	found := false
	for _, r := range rolls {
		if r.ID == id {
			require.Equal(t, "2d6+1", r.Spec)
			require.Equal(t, []int{4, 6}, r.Results)
			require.Equal(t, 11, r.Total)
			found = true
		}
	}
	require.True(t, found)
}

func TestJournalRollsLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := j.AddRoll(ctx, dice.Roll{
			Spec:    dice.Spec{Count: 1, Sides: 6},
			Results: []int{i + 1},
			Total:   i + 1,
		})
		require.NoError(t, err)
	}

	rolls, err := j.RecentRolls(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rolls, 3)
}

func TestJournalEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)

	require.NoError(t, j.AddEvent(ctx, "campaign", "activated dragon-heist"))
	require.NoError(t, j.AddEvent(ctx, "control", "restarted brain"))

	events, err := j.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	sources := map[string]bool{}
	for _, e := range events {
		sources[e.Source] = true
		require.NotEmpty(t, e.Message)
		require.False(t, e.LoggedAt.IsZero())
	}
	require.True(t, sources["campaign"])
	require.True(t, sources["control"])
}

func TestResultsEncoding(t *testing.T) {
	t.Parallel()

	require.Equal(t, "4,6,1", encodeResults([]int{4, 6, 1}))
	require.Equal(t, []int{4, 6, 1}, decodeResults("4,6,1"))
	require.Nil(t, decodeResults(""))
	require.Empty(t, encodeResults(nil))
}
