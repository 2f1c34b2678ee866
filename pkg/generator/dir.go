package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/export"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// DirGenerator serves trees from a directory of JSON files, one per topic,
// named the way exports are (export.Filename). Exported maps can be
// reopened this way.
type DirGenerator struct {
	Dir string
}

// Generate reads Dir/<slug>.json for topic.
func (g DirGenerator) Generate(ctx context.Context, topic string) (model.Concept, error) {
	if strings.TrimSpace(topic) == "" {
		return model.Concept{}, ErrEmptyTopic
	}
	if err := ctx.Err(); err != nil {
		return model.Concept{}, err
	}
	path := filepath.Join(g.Dir, export.Filename(topic))
	return LoadFile(path)
}

// Topics returns the slugs of every tree file under Dir (see ScanTrees),
// sorted.
func (g DirGenerator) Topics(maxDepth int) []string {
	var topics []string
	for _, path := range ScanTrees(g.Dir, maxDepth) {
		rel, err := filepath.Rel(g.Dir, path)
		if err != nil {
			continue
		}
		topics = append(topics, strings.TrimSuffix(filepath.ToSlash(rel), ".json"))
	}
	sort.Strings(topics)
	return topics
}

// LoadFile decodes one tree file.
func LoadFile(path string) (model.Concept, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Concept{}, fmt.Errorf("open tree file: %w", err)
	}
	defer f.Close()

	c, err := model.Decode(f)
	if err != nil {
		return model.Concept{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// ScanTrees returns every .json file in root and in directories at most
// maxDepth levels below it. Hidden directories and files are skipped.
func ScanTrees(root string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Check depth
			currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if currentDepth > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(name), ".json") {
			results = append(results, path)
		}
		return nil
	})

	return results
}
