package jsonstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
)

func TestLoad_Missing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cache.json"))
	snap, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(snap.Entries))
	}
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := New(filepath.Join(dir, "cache.json"))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := querycache.New(querycache.WithClock(func() time.Time { return now }))
	c.Set(querycache.ListKey(model.StatusPending), model.TodoList{
		Items: []model.Todo{{ID: "1", Description: "buy milk"}},
		Total: 1,
	})
	c.Set(querycache.CountKey(model.StatusPending), 1)

	if err := s.Save(c.Snapshot()); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	snap, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	restored := querycache.New(querycache.WithClock(func() time.Time { return now }))
	if n := restored.Restore(snap); n != 2 {
		t.Fatalf("restored %d entries, want 2", n)
	}
	l, ok := querycache.Peek[model.TodoList](restored, querycache.ListKey(model.StatusPending))
	if !ok || len(l.Items) != 1 || l.Items[0].Description != "buy milk" {
		t.Errorf("list = %+v", l)
	}
	if n, _ := querycache.Peek[int](restored, querycache.CountKey(model.StatusPending)); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(p).Load(); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestClear(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cache.json"))
	if err := s.Clear(); err != nil {
		t.Errorf("clear missing: %v", err)
	}
	if err := s.Save(querycache.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("snapshot still present")
	}
}

func TestDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TADA_HOME", home)
	s, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if s.Path() != filepath.Join(home, dataFileName) {
		t.Errorf("path = %q", s.Path())
	}
}
