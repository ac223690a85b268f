package chromepage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	result := ResolveChromePath("/custom/path/to/chrome")
	if result != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to be returned, got %s", result)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if result := ResolveChromePath(""); result != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", result)
	}
	if result := ResolveChromePath("/explicit/chrome"); result != "/explicit/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", result)
	}
}

func TestResolveExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "chrome")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if got := resolveExecutable(exe); got != exe {
		t.Errorf("expected %s, got %q", exe, got)
	}
	if got := resolveExecutable(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("expected empty for missing file, got %q", got)
	}
	if got := resolveExecutable("labelkit-no-such-binary"); got != "" {
		t.Errorf("expected empty for unknown command, got %q", got)
	}
}
