package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"hotghost/internal/assets"
	"hotghost/internal/generator"
	"hotghost/internal/textlayout"
	"hotghost/internal/transcoder"
	"hotghost/internal/transcoder/transcodertest"
)

type fakeMaintenance struct {
	pruneBefore time.Time
	pruneErr    error
	versions    []string
}

func (f *fakeMaintenance) Prune(_ context.Context, before time.Time) (int64, error) {
	f.pruneBefore = before
	return 2, f.pruneErr
}

func (f *fakeMaintenance) SetEngineVersion(_ context.Context, v string) (bool, error) {
	changed := len(f.versions) == 0 || f.versions[len(f.versions)-1] != v
	f.versions = append(f.versions, v)
	return changed, nil
}

func newGenerator(t *testing.T) *generator.Generator {
	t.Helper()
	text := textlayout.NewDefault()
	g := generator.New(generator.Config{
		Assets:    assets.New(t.TempDir(), text),
		Text:      text,
		Engine:    transcoder.New(transcoder.Config{WorkDir: filepath.Join(t.TempDir(), "work")}, &transcodertest.Runner{}),
		HandleTTL: time.Minute,
	})
	t.Cleanup(g.Close)
	return g
}

func TestMaintainOnce(t *testing.T) {
	g := newGenerator(t)
	db := &fakeMaintenance{}
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	recorded := maintainOnce(context.Background(), g, db, 24*time.Hour, now, "")
	if !db.pruneBefore.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("pruned before %v", db.pruneBefore)
	}
	if recorded != "" || len(db.versions) != 0 {
		t.Errorf("version recorded before the engine was ready: %q %v", recorded, db.versions)
	}

	if err := g.Engine().Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	recorded = maintainOnce(context.Background(), g, db, 0, now, recorded)
	if recorded == "" || len(db.versions) != 1 {
		t.Fatalf("version not recorded: %q %v", recorded, db.versions)
	}

	if again := maintainOnce(context.Background(), g, db, 0, now, recorded); again != recorded || len(db.versions) != 1 {
		t.Errorf("unchanged version written again: %v", db.versions)
	}
}

func TestMaintainOnceSurvivesPruneError(t *testing.T) {
	g := newGenerator(t)
	db := &fakeMaintenance{pruneErr: errors.New("database is locked")}
	maintainOnce(context.Background(), g, db, time.Hour, time.Now(), "")
}

func TestMaintainStopsOnCancel(t *testing.T) {
	g := newGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		maintain(ctx, g, &fakeMaintenance{}, 0)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("maintain did not return after cancel")
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
