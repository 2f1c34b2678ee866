package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// GenerateMarkdown renders the tree as a Markdown outline: a mermaid graph
// of the hierarchy followed by one heading per concept with its
// explanation. Headings stop growing at level 6.
func GenerateMarkdown(t *model.Tree, title string) string {
	var sb strings.Builder
	if t == nil || t.Len() == 0 {
		return sb.String()
	}
	if title == "" {
		title = t.Root().Label
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("- **Concepts**: %d\n", t.Len()))
	sb.WriteString(fmt.Sprintf("- **Depth**: %d\n\n", t.MaxDepth()))

	// Hierarchy (Mermaid)
	sb.WriteString("## Map\n\n")
	sb.WriteString("```mermaid\ngraph LR\n")
	t.Walk(func(n model.Node) bool {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", mermaidID(n.ID), mermaidLabel(n.Label)))
		if n.Parent >= 0 {
			parent := t.NodeAt(n.Parent)
			style := "-->"
			if n.Depth > 1 {
				style = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", mermaidID(parent.ID), style, mermaidID(n.ID)))
		}
		return true
	})
	sb.WriteString("```\n\n---\n\n")

	// Concepts
	t.Walk(func(n model.Node) bool {
		if n.Parent < 0 {
			if strings.TrimSpace(n.Explanation) != "" {
				sb.WriteString(strings.TrimSpace(n.Explanation) + "\n\n")
			}
			return true
		}
		level := n.Depth + 1
		if level > 6 {
			level = 6
		}
		sb.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), n.Label))
		if explanation := strings.TrimSpace(n.Explanation); explanation != "" {
			sb.WriteString(explanation + "\n\n")
		}
		return true
	})

	return sb.String()
}

// WriteMarkdown writes GenerateMarkdown(t, title) to w.
func WriteMarkdown(w io.Writer, t *model.Tree, title string) error {
	_, err := io.WriteString(w, GenerateMarkdown(t, title))
	return err
}

// mermaidID maps an arbitrary id to a mermaid-safe node name.
func mermaidID(id string) string {
	var sb strings.Builder
	sb.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteString(fmt.Sprintf("_%x_", r))
		}
	}
	return sb.String()
}

func mermaidLabel(label string) string {
	safe := strings.ReplaceAll(label, "\"", "'")
	safe = strings.NewReplacer("[", "", "]", "", "(", "", ")", "").Replace(safe)
	if r := []rune(safe); len(r) > 40 {
		safe = string(r[:37]) + "..."
	}
	return safe
}
