package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCoversDir(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		{"maps", true},
		{"maps/", true},
		{"maps/*", true},
		{"maps/**", true},
		{"maps/**/*", true},
		{"/maps/", true},

		{"", false},
		{"maps2", false},
		{"map", false},
		{"*.json", false},
		{"maps/old", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := coversDir(tt.line, "maps"); got != tt.matches {
				t.Errorf("coversDir(%q) = %v, want %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestEnsureIgnored(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{"no file", nil, "# mmv exported mind maps\nmaps/\n"},
		{"no trailing newline", ptr("*.log"), "*.log\n\n# mmv exported mind maps\nmaps/\n"},
		{"trailing newline", ptr("*.log\n"), "*.log\n\n# mmv exported mind maps\nmaps/\n"},
		{"already ignored", ptr("node_modules/\n/maps\n"), "node_modules/\n/maps\n"},
		{"commented out", ptr("# maps/\n"), "# maps/\n\n# mmv exported mind maps\nmaps/\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			for i := 0; i < 2; i++ {
				if err := EnsureIgnored(dir, "maps"); err != nil {
					t.Fatalf("EnsureIgnored #%d: %v", i+1, err)
				}
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureIgnoredNested(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureIgnored(dir, filepath.Join(dir, "out", "maps")); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(got), "\nout/maps/\n") {
		t.Errorf("unexpected .gitignore: %q", got)
	}
}

func TestEnsureIgnoredRejectsOutsideDirs(t *testing.T) {
	dir := t.TempDir()
	for _, exportDir := range []string{".", "..", filepath.Join("..", "elsewhere")} {
		if err := EnsureIgnored(dir, exportDir); !errors.Is(err, ErrNotSubdir) {
			t.Errorf("EnsureIgnored(%q) = %v, want ErrNotSubdir", exportDir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); !os.IsNotExist(err) {
		t.Error(".gitignore should not be created")
	}
}

func ptr(s string) *string { return &s }
