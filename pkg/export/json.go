// Package export writes mind maps to disk: the concept tree as JSON (the
// same shape the generator produced), a Markdown outline, and rendered
// SVG/PNG snapshots.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// DefaultBase is used when the topic is empty or all whitespace.
const DefaultBase = "mindmap"

// Slug lower-cases topic and replaces every whitespace run with a single
// underscore. Leading and trailing whitespace is dropped. Path separators
// become underscores so the result is always a plain file name.
func Slug(topic string) string {
	fields := strings.FieldsFunc(strings.ToLower(topic), unicode.IsSpace)
	slug := strings.Join(fields, "_")
	slug = strings.NewReplacer("/", "_", "\\", "_").Replace(slug)
	if slug == "" || slug == "." || slug == ".." {
		return DefaultBase
	}
	return slug
}

// Filename returns the JSON export name for topic, e.g.
// "Photosynthesis in Plants" -> "photosynthesis_in_plants.json".
func Filename(topic string) string {
	return Slug(topic) + ".json"
}

// WriteJSON serializes c verbatim as indented JSON.
func WriteJSON(w io.Writer, c model.Concept) error {
	return model.Encode(w, c)
}

// SaveJSON writes c to dir/Filename(topic) and returns the path.
func SaveJSON(dir, topic string, c model.Concept) (string, error) {
	path := filepath.Join(dir, Filename(topic))
	if err := writeFileAtomic(path, func(w io.Writer) error { return WriteJSON(w, c) }); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so readers never see a partial export.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
