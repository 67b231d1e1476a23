package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type audioDoc struct {
	DMName string
	Voices []string
}

func TestBindingReconcileCleanInstalls(t *testing.T) {
	t.Parallel()

	b := NewBinding(audioDoc{})
	_, ok := b.LastSynced()
	require.False(t, ok, "nothing synced before first reconcile")

	installed := b.Reconcile(audioDoc{DMName: "Vex", Voices: []string{"a"}})
	require.True(t, installed)
	require.Equal(t, "Vex", b.Local().DMName)
	require.False(t, b.Dirty())

	synced, ok := b.LastSynced()
	require.True(t, ok)
	require.Equal(t, "Vex", synced.DMName)
}

func TestBindingDirtyBlocksReconcile(t *testing.T) {
	t.Parallel()

	b := NewBinding(audioDoc{})
	require.True(t, b.Reconcile(audioDoc{DMName: "Vex"}))

	b.Edit(func(d *audioDoc) { d.DMName = "Renamed" })
	require.True(t, b.Dirty())

	installed := b.Reconcile(audioDoc{DMName: "Vex", Voices: []string{"fresh"}})
	require.False(t, installed, "reconcile must not overwrite unsaved edits")
	require.Equal(t, "Renamed", b.Local().DMName)
	require.Empty(t, b.Local().Voices)
}

func TestBindingUnsavedRowSurvivesPoll(t *testing.T) {
	t.Parallel()

	// an added row that is not on the server yet must survive any number of
	// polls until saved
	b := NewBinding(audioDoc{})
	require.True(t, b.Reconcile(audioDoc{Voices: []string{"a"}}))

	b.Edit(func(d *audioDoc) { d.Voices = append(d.Voices, "new-row") })
	for i := 0; i < 5; i++ {
		b.Reconcile(audioDoc{Voices: []string{"a"}})
	}
	require.Equal(t, []string{"a", "new-row"}, b.Local().Voices)
}

func TestBindingSaveClearsDirtyOnSuccessOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBinding(audioDoc{})
	b.Edit(func(d *audioDoc) { d.DMName = "Vex" })

	boom := errors.New("backend down")
	err := b.Save(ctx, func(context.Context, audioDoc) error { return boom })
	require.ErrorIs(t, err, boom)
	require.True(t, b.Dirty(), "failed save must not clear dirty")

	var persisted audioDoc
	err = b.Save(ctx, func(_ context.Context, d audioDoc) error {
		persisted = d
		return nil
	})
	require.NoError(t, err)
	require.False(t, b.Dirty())
	require.Equal(t, "Vex", persisted.DMName)

	synced, ok := b.LastSynced()
	require.True(t, ok)
	require.Equal(t, "Vex", synced.DMName)

	// now clean again, polls apply
	require.True(t, b.Reconcile(audioDoc{DMName: "FromServer"}))
	require.Equal(t, "FromServer", b.Local().DMName)
}

func TestBindingEditDuringSaveStaysDirty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBinding(audioDoc{})
	b.Edit(func(d *audioDoc) { d.DMName = "first" })

	err := b.Save(ctx, func(context.Context, audioDoc) error {
		// a second edit lands while the save is in flight
		b.Edit(func(d *audioDoc) { d.DMName = "second" })
		return nil
	})
	require.NoError(t, err)
	require.True(t, b.Dirty(), "in-flight edit must keep the binding dirty")
	require.Equal(t, "second", b.Local().DMName)

	// the in-flight edit still blocks reconciles
	require.False(t, b.Reconcile(audioDoc{DMName: "poll"}))
	require.Equal(t, "second", b.Local().DMName)
}

func TestBindingsAreIndependent(t *testing.T) {
	t.Parallel()

	audio := NewBinding(audioDoc{})
	other := NewBinding(audioDoc{})

	audio.Edit(func(d *audioDoc) { d.DMName = "dirty" })
	require.True(t, audio.Dirty())
	require.False(t, other.Dirty())
	require.True(t, other.Reconcile(audioDoc{DMName: "clean install"}))
}
