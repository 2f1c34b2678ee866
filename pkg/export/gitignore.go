package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotSubdir is returned by EnsureIgnored for an export directory outside
// the project, or the project directory itself.
var ErrNotSubdir = errors.New("export dir is not inside the project")

// EnsureIgnored lists exportDir in projectDir/.gitignore so generated maps
// stay out of the repository. It is idempotent: a line already covering the
// directory (name, name/, name/*, name/**, with or without a leading slash)
// leaves the file untouched.
func EnsureIgnored(projectDir, exportDir string) error {
	rel, err := relativeDir(projectDir, exportDir)
	if err != nil {
		return err
	}

	path := filepath.Join(projectDir, ".gitignore")
	present, err := isIgnored(path, rel)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(path, rel+"/")
}

func relativeDir(projectDir, exportDir string) (string, error) {
	if !filepath.IsAbs(exportDir) {
		exportDir = filepath.Join(projectDir, exportDir)
	}
	rel, err := filepath.Rel(projectDir, exportDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotSubdir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotSubdir
	}
	return filepath.ToSlash(rel), nil
}

func isIgnored(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir reports whether a gitignore line ignores all of dir.
func coversDir(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == dir+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends pattern under a comment, creating the file if
// needed and keeping a blank line between it and existing content.
func appendToGitignore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += "# mmv exported mind maps\n" + pattern + "\n"

	_, err = file.WriteString(toWrite)
	return err
}
