package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchSignalsOnMatchingChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := Watch(ctx, dir, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "main.tf"), []byte("locals {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-w.C:
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload signal")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := Watch(ctx, dir, []string{".tf"}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.C:
		t.Fatalf("unexpected signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMatches(t *testing.T) {
	w := &Watcher{exts: DefaultExtensions}
	for path, want := range map[string]bool{
		"main.tf":            true,
		"prod.tfvars":        true,
		"a.auto.tfvars.json": true,
		"README.md":          false,
		"main.tf.swp":        false,
	} {
		if got := w.matches(path); got != want {
			t.Fatalf("%s: got %v want %v", path, got, want)
		}
	}
}
