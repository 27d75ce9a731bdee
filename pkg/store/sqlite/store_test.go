package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/decker502/orbgallery/pkg/game"
	"github.com/decker502/orbgallery/pkg/types"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orbs.db")
	store, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestSaveGetAndList(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	b := types.NewOrbRecord("beta")
	b.VideoPath = "/media/b.mp4"
	a := types.NewOrbRecord("alpha")
	a.Text = "hello"

	for _, rec := range []types.OrbRecord{b, a} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.Name, err)
		}
	}

	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != b {
		t.Fatalf("get = %+v, want %+v", got, b)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list len = %d, want 2", len(list))
	}
	if list[0].Name != "alpha" || list[1].Name != "beta" {
		t.Fatalf("list order = %q, %q, want alpha, beta", list[0].Name, list[1].Name)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	rec := types.NewOrbRecord("orb")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Text = "edited"
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save again: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Text != "edited" {
		t.Fatalf("list = %+v, want one edited record", list)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	rec := types.NewOrbRecord("gone")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, game.ErrOrbNotFound) {
		t.Fatalf("get after delete err = %v, want ErrOrbNotFound", err)
	}
	if err := store.Delete(ctx, rec.ID); !errors.Is(err, game.ErrOrbNotFound) {
		t.Fatalf("second delete err = %v, want ErrOrbNotFound", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orbs.db")

	first, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := types.NewOrbRecord("persisted")
	if err := first.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// 第二次打开不会重复执行迁移
	second, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if _, err := second.Get(ctx, rec.ID); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	if err := store.Save(ctx, types.OrbRecord{Name: "no id"}); err == nil {
		t.Fatal("expected validation error for missing id")
	}
	if _, err := Open(ctx, " ", nil); err == nil {
		t.Fatal("expected error for empty path")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.List(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("list with cancelled ctx err = %v, want context.Canceled", err)
	}
}

func TestExtractUp(t *testing.T) {
	got := extractUp("-- +migrate Up\nCREATE TABLE x (a INT);\n-- +migrate Down\nDROP TABLE x;\n")
	if got != "\nCREATE TABLE x (a INT);\n" {
		t.Fatalf("extractUp = %q", got)
	}
	if got := extractUp("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("extractUp without markers = %q", got)
	}
}
