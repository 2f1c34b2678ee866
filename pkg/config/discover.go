package config

import (
	"os"
	"path/filepath"
)

// Config file location, relative to a project directory.
const (
	DirName  = ".mindmap"
	FileName = "config.yaml"
)

// FindConfigFile looks for .mindmap/config.yaml from startDir upward, then
// for the per-user file.
func FindConfigFile(startDir string) (string, bool) {
	if dir, err := filepath.Abs(startDir); err == nil {
		if root, ok := findProjectRoot(dir); ok {
			return filepath.Join(root, DirName, FileName), true
		}
	}
	if path := UserConfigPath(); path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// UserConfigPath returns the per-user config file, usually
// ~/.config/mmv/config.yaml. It is empty when no config dir is known.
func UserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mmv", FileName)
}

// findProjectRoot walks up from dir looking for .mindmap/config.yaml.
func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, DirName, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
