package game

import (
	"context"
	"testing"

	"github.com/quasilyte/gdata/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/orbgallery/pkg/types"
)

func newTestLibrary(t *testing.T) *OrbLibrary {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	gdataManager, err := gdata.Open(gdata.Config{AppName: "test_orb_library"})
	require.NoError(t, err)
	return NewOrbLibrary(gdataManager, nil)
}

func TestOrbLibrarySaveGetList(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)
	require.True(t, lib.Persistent())

	b := types.NewOrbRecord("beta")
	b.Text = "second"
	a := types.NewOrbRecord("alpha")
	a.ImagePath = "/tmp/a.png"

	require.NoError(t, lib.Save(ctx, b))
	require.NoError(t, lib.Save(ctx, a))

	got, err := lib.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	list, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "beta", list[1].Name)
}

func TestOrbLibraryOverwriteKeepsSingleEntry(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	rec := types.NewOrbRecord("orb")
	require.NoError(t, lib.Save(ctx, rec))
	rec.Text = "updated"
	require.NoError(t, lib.Save(ctx, rec))

	list, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "updated", list[0].Text)
}

func TestOrbLibraryDelete(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	rec := types.NewOrbRecord("gone")
	require.NoError(t, lib.Save(ctx, rec))
	require.NoError(t, lib.Delete(ctx, rec.ID))

	_, err := lib.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrOrbNotFound)
	assert.ErrorIs(t, lib.Delete(ctx, rec.ID), ErrOrbNotFound)

	list, err := lib.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrbLibraryPersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	t.Setenv("HOME", t.TempDir())

	m1, err := gdata.Open(gdata.Config{AppName: "test_orb_reopen"})
	require.NoError(t, err)
	rec := types.NewOrbRecord("kept")
	require.NoError(t, NewOrbLibrary(m1, nil).Save(ctx, rec))

	m2, err := gdata.Open(gdata.Config{AppName: "test_orb_reopen"})
	require.NoError(t, err)
	got, err := NewOrbLibrary(m2, nil).Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestOrbLibraryRejectsInvalidRecord(t *testing.T) {
	lib := newTestLibrary(t)
	err := lib.Save(context.Background(), types.OrbRecord{ID: "x", Name: "bad"})
	assert.Error(t, err)
}

// 降级模式：没有 gdata 时仍然可用，只是不持久化
func TestOrbLibraryMemoryOnly(t *testing.T) {
	ctx := context.Background()
	lib := NewOrbLibrary(nil, nil)
	assert.False(t, lib.Persistent())

	rec := types.NewOrbRecord("volatile")
	require.NoError(t, lib.Save(ctx, rec))

	got, err := lib.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, lib.Delete(ctx, rec.ID))
	_, err = lib.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrOrbNotFound)
}

func TestOrbLibraryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lib := NewOrbLibrary(nil, nil)
	assert.ErrorIs(t, lib.Save(ctx, types.NewOrbRecord("x")), context.Canceled)
	_, err := lib.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
