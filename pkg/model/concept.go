package model

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// Concept is one node of a mind map as produced by the external generator.
// It is also the on-disk export format, so field names must stay stable.
//
// File format (JSON):
//
//	{
//	  "id": "root",
//	  "label": "Photosynthesis",
//	  "explanation": "How plants turn light into sugar.",
//	  "children": [ { "id": "light", "label": "Light reactions", "children": [] } ]
//	}
type Concept struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Explanation string    `json:"explanation,omitempty"`
	Children    []Concept `json:"children"`
}

// HasExplanation reports whether the generator supplied explanation text.
func (c Concept) HasExplanation() bool {
	return strings.TrimSpace(c.Explanation) != ""
}

// Decode reads a single Concept from r.
func Decode(r io.Reader) (Concept, error) {
	var root Concept
	dec := json.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return Concept{}, fmt.Errorf("decode concept tree: %w", err)
	}
	return root, nil
}

// Encode writes root to w as indented JSON followed by a newline.
// Indentation is applied after marshaling; the encoder's own SetIndent pads
// recursive types with runaway whitespace.
func Encode(w io.Writer, root Concept) error {
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("encode concept tree: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("encode concept tree: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("encode concept tree: %w", err)
	}
	return nil
}

// Import parses a JSON document into a Concept.
func Import(data []byte) (Concept, error) {
	return Decode(bytes.NewReader(data))
}

// Export serializes root verbatim. Import(Export(c)) yields c again.
func Export(root Concept) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of c. Nil children stay nil so that an exported
// clone is byte-identical to an exported original.
func (c Concept) Clone() Concept {
	clone := c
	if c.Children != nil {
		clone.Children = make([]Concept, len(c.Children))
		for i, child := range c.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}
