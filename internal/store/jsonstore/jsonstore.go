package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// JSON snapshot export. Single file, human-readable, portable.
// Write-only: nothing in the app reads a snapshot back.

// DefaultFileName is used when the target is a directory.
const DefaultFileName = "todos.json"

// Snapshot is the exported document.
type Snapshot struct {
	Source string       `json:"source"`
	Search string       `json:"search,omitempty"`
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Todos  []model.Todo `json:"todos"`
}

func resolvePath(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		return filepath.Join(wd, DefaultFileName), nil
	}
	fi, err := os.Stat(target)
	if err == nil && fi.IsDir() {
		return filepath.Join(target, DefaultFileName), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat: %w", err)
	}
	return target, nil
}

// Save writes snap atomically and returns the final path.
func Save(target string, snap Snapshot) (string, error) {
	p, err := resolvePath(target)
	if err != nil {
		return "", err
	}
	if snap.Todos == nil {
		snap.Todos = []model.Todo{}
	}
	snap.Count = len(snap.Todos)

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	if err := atomic.WriteFile(p, bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return p, nil
}
