package ui

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// Terminal cells are mapped onto scene pixels at a fixed size.
const (
	CellWidth  = 8
	CellHeight = 16
)

var (
	ColorBg          = lipgloss.Color("#1e1e2e")
	ColorBgDark      = lipgloss.Color("#181825")
	ColorBgHighlight = lipgloss.Color("#313244")
	ColorText        = lipgloss.Color("#f8f8f2")
	ColorSubtext     = lipgloss.Color("#a6adc8")
	ColorPrimary     = lipgloss.Color("#bd93f9")
	ColorSecondary   = lipgloss.Color("#6272a4")
	ColorError       = lipgloss.Color("#ff5555")
	ColorSuccess     = lipgloss.Color("#50fa7b")
)

// PanelStyle frames the explanation overlay.
var PanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorSecondary).
	Background(ColorBgDark).
	Padding(0, 1)

// lipColor converts a scene color to a lipgloss color.
func lipColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(render.Hex(c))
}
