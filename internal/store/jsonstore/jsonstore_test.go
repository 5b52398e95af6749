package jsonstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/tada-remote/internal/model"
)

func TestSaveWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pending.json")
	todos := []model.Todo{{ID: 1, Title: "Buy milk", UserID: 1}}

	got, err := Save(path, Snapshot{Source: "https://example.test", Status: "pending", Todos: todos})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got != path {
		t.Fatalf("Save() path = %q, want %q", got, path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Count != 1 || snap.Status != "pending" {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if diff := cmp.Diff(todos, snap.Todos); diff != "" {
		t.Fatalf("todos mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveIntoDirectoryUsesDefaultName(t *testing.T) {
	dir := t.TempDir()
	got, err := Save(dir, Snapshot{Status: "all"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got != filepath.Join(dir, DefaultFileName) {
		t.Fatalf("Save() path = %q", got)
	}
	b, _ := os.ReadFile(got)
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Todos == nil || snap.Count != 0 {
		t.Fatalf("empty export should carry an empty list, got %+v", snap)
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if _, err := Save(path, Snapshot{Todos: []model.Todo{{ID: 1}, {ID: 2}}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := Save(path, Snapshot{Todos: []model.Todo{{ID: 3}}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, _ := os.ReadFile(path)
	var snap Snapshot
	_ = json.Unmarshal(b, &snap)
	if snap.Count != 1 || snap.Todos[0].ID != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
