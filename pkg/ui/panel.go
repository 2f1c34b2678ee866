package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// closeGlyph is drawn at the right end of the panel title row.
const closeGlyph = "[x]"

// explanationPanel renders the selected node's explanation as an overlay.
// The body is markdown, rendered once per node and width.
type explanationPanel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	wrap     int
	nodeID   string
	body     string
}

// panelCells converts the scene panel rectangle to a cell box.
func panelCells(p *render.Panel) (col, row, width, height int) {
	col = int(math.Floor(p.Rect.X / CellWidth))
	row = int(math.Floor(p.Rect.Y / CellHeight))
	width = int(math.Ceil((p.Rect.X+p.Rect.W)/CellWidth)) - col
	height = int(math.Ceil((p.Rect.Y+p.Rect.H)/CellHeight)) - row
	return col, row, width, height
}

// closeCells returns the cells View draws closeGlyph into: the last inner
// columns of the title row, inside the right border and padding.
func closeCells(p *render.Panel) (first, last, row int) {
	col, top, width, _ := panelCells(p)
	last = col + width - 3
	first = last - runewidth.StringWidth(closeGlyph) + 1
	return first, last, top + 1
}

// panelTarget resolves a hit on the panel by its drawn cells rather than
// the scene's pixel rectangles, which do not land on cell boundaries.
func panelTarget(p *render.Panel, col, row int, t interaction.Target) interaction.Target {
	if p == nil || t.Kind == interaction.TargetOutside {
		return t
	}
	first, last, closeRow := closeCells(p)
	if row == closeRow && col >= first && col <= last {
		return interaction.Target{Kind: interaction.TargetPanelClose, ID: p.NodeID}
	}
	if t.Kind == interaction.TargetPanelClose {
		return interaction.Target{Kind: interaction.TargetPanel, ID: p.NodeID}
	}
	return t
}

// sync prepares the viewport for p. Content is re-rendered only when the
// node or the available width changes.
func (e *explanationPanel) sync(p *render.Panel) {
	if p == nil {
		e.nodeID = ""
		return
	}
	_, _, width, height := panelCells(p)
	inner := width - 4
	bodyRows := height - 4
	if inner < 1 || bodyRows < 1 {
		return
	}

	if e.renderer == nil || e.wrap != inner {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(inner),
		)
		if err == nil {
			e.renderer = r
		}
		e.wrap = inner
		e.nodeID = ""
	}
	if e.viewport.Width != inner || e.viewport.Height != bodyRows {
		e.viewport = viewport.New(inner, bodyRows)
		e.nodeID = ""
	}
	if e.nodeID == p.NodeID && e.body == p.Body {
		return
	}
	e.nodeID = p.NodeID
	e.body = p.Body
	e.viewport.SetContent(e.renderBody(p, inner))
	e.viewport.GotoTop()
}

func (e *explanationPanel) renderBody(p *render.Panel, width int) string {
	if p.Placeholder || e.renderer == nil {
		return lipgloss.NewStyle().
			Foreground(ColorSubtext).
			Italic(p.Placeholder).
			Width(width).
			Render(p.Body)
	}
	out, err := e.renderer.Render(p.Body)
	if err != nil {
		return fmt.Sprintf("Error rendering markdown: %v", err)
	}
	return strings.Trim(out, "\n")
}

// View renders the framed panel sized to p.
func (e *explanationPanel) View(p *render.Panel) string {
	_, _, width, height := panelCells(p)
	inner := width - 4
	if inner < 1 || height < 3 {
		return ""
	}

	titleWidth := inner - runewidth.StringWidth(closeGlyph) - 1
	title := runewidth.Truncate(p.Title, max(titleWidth, 0), "…")
	gap := inner - runewidth.StringWidth(title) - runewidth.StringWidth(closeGlyph)
	header := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Render(title) +
		strings.Repeat(" ", max(gap, 0)) +
		lipgloss.NewStyle().Foreground(ColorSubtext).Render(closeGlyph)

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", e.viewport.View())
	return PanelStyle.
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

func (e *explanationPanel) ScrollUp(n int) {
	e.viewport.LineUp(n)
}

func (e *explanationPanel) ScrollDown(n int) {
	e.viewport.LineDown(n)
}
