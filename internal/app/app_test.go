package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	a := New("deployment.yaml", slog.LevelDebug)

	if a == nil {
		t.Fatal("expected App instance, got nil")
	}

	if a.ConfigPath != "deployment.yaml" {
		t.Errorf("expected config path %q, got %q", "deployment.yaml", a.ConfigPath)
	}

	if a.Logger == nil {
		t.Error("expected App to have a logger")
	}

	if !a.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug logging to be enabled")
	}
}

func TestStoreIsCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	if err := os.WriteFile(path, []byte("fabric:\n  user: \"deploy\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	a := New(path, slog.LevelInfo)
	first, err := a.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove config: %v", err)
	}

	second, err := a.Store()
	if err != nil {
		t.Fatalf("expected cached store after file removal, got %v", err)
	}
	if first != second {
		t.Error("expected the same store instance")
	}
}

func TestStoreMissingFile(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "missing.yaml"), slog.LevelInfo)
	if _, err := a.Store(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
