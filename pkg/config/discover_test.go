package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, DirName, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "layout:\n  horizontal_spacing: 300\n")

	sub := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	found, ok := findProjectRoot(sub)
	if !ok {
		t.Fatal("expected to find project root")
	}
	if found != root {
		t.Errorf("expected %q, got %q", root, found)
	}
}

func TestFindProjectRoot_IgnoresBareDirectory(t *testing.T) {
	home := isolate(t)
	proj := filepath.Join(home, "proj")
	// .mindmap without a config file does not count
	if err := os.MkdirAll(filepath.Join(proj, DirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := findProjectRoot(proj); ok {
		t.Error("expected no root for a .mindmap dir without config.yaml")
	}
}

func TestFindProjectRoot_StopsAtHome(t *testing.T) {
	home := isolate(t)
	// A config above home must not be found
	writeConfig(t, filepath.Dir(home), "")
	sub := filepath.Join(home, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if root, ok := findProjectRoot(sub); ok {
		t.Errorf("walked above home to %q", root)
	}
}

func TestFindConfigFile_FallsBackToUserConfig(t *testing.T) {
	home := isolate(t)
	userPath := filepath.Join(home, ".config", "mmv", FileName)
	if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userPath, []byte("export:\n  dir: out\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	work := filepath.Join(home, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok := FindConfigFile(work)
	if !ok || path != userPath {
		t.Errorf("FindConfigFile = %q, %v; want %q", path, ok, userPath)
	}

	// A project config wins over the user file
	projPath := writeConfig(t, work, "")
	if path, _ := FindConfigFile(work); path != projPath {
		t.Errorf("expected project config %q, got %q", projPath, path)
	}
}
