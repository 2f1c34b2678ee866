package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

type cell struct {
	r    rune
	fg   lipgloss.Color
	bg   lipgloss.Color
	bold bool
	// cont marks the right half of a double-width rune.
	cont bool
}

// Canvas is a grid of styled terminal cells.
type Canvas struct {
	cols, rows int
	cells      []cell
}

// Overlay is a pre-rendered block placed over the canvas at a cell offset.
type Overlay struct {
	Col, Row int
	Block    string
}

// NewCanvas returns a canvas filled with blanks on bg.
func NewCanvas(cols, rows int, bg lipgloss.Color) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &Canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' ', bg: bg}
	}
	return c
}

// Size returns the canvas dimensions in cells.
func (c *Canvas) Size() (cols, rows int) {
	return c.cols, c.rows
}

func (c *Canvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return nil
	}
	return &c.cells[row*c.cols+col]
}

// Rune returns the rune drawn at a cell, or 0 outside the canvas.
func (c *Canvas) Rune(col, row int) rune {
	if p := c.at(col, row); p != nil && !p.cont {
		return p.r
	}
	return 0
}

func (c *Canvas) set(col, row int, r rune, fg, bg lipgloss.Color, bold bool) {
	p := c.at(col, row)
	if p == nil {
		return
	}
	*p = cell{r: r, fg: fg, bg: bg, bold: bold}
}

// text writes s starting at col, clipping at maxCol (exclusive).
func (c *Canvas) text(col, row, maxCol int, s string, fg, bg lipgloss.Color, bold bool) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > maxCol {
			return
		}
		c.set(col, row, r, fg, bg, bold)
		if w == 2 {
			if p := c.at(col+1, row); p != nil {
				*p = cell{cont: true, fg: fg, bg: bg}
			}
		}
		col += w
	}
}

// segment renders cells [from, to) of row, merging runs of equal style.
func (c *Canvas) segment(row, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > c.cols {
		to = c.cols
	}
	var b strings.Builder
	var run strings.Builder
	var cur cell
	flush := func() {
		if run.Len() == 0 {
			return
		}
		st := lipgloss.NewStyle().Background(cur.bg).Bold(cur.bold)
		if cur.fg != "" {
			st = st.Foreground(cur.fg)
		}
		b.WriteString(st.Render(run.String()))
		run.Reset()
	}
	for col := from; col < to; col++ {
		p := c.cells[row*c.cols+col]
		if p.cont {
			continue
		}
		if p.fg != cur.fg || p.bg != cur.bg || p.bold != cur.bold {
			flush()
			cur = p
		}
		run.WriteRune(p.r)
	}
	flush()
	return b.String()
}

// String renders the canvas without overlays.
func (c *Canvas) String() string {
	return c.Compose()
}

// Compose renders the canvas with overlays spliced over it. Overlays must
// not overlap each other.
func (c *Canvas) Compose(overlays ...Overlay) string {
	type line struct {
		col   int
		text  string
		width int
	}
	spans := make(map[int][]line)
	for _, o := range overlays {
		for i, l := range strings.Split(o.Block, "\n") {
			row := o.Row + i
			if row < 0 || row >= c.rows {
				continue
			}
			spans[row] = append(spans[row], line{col: o.Col, text: l, width: lipgloss.Width(l)})
		}
	}

	rows := make([]string, c.rows)
	for row := 0; row < c.rows; row++ {
		sort.Slice(spans[row], func(i, j int) bool { return spans[row][i].col < spans[row][j].col })
		col := 0
		var b strings.Builder
		for _, s := range spans[row] {
			if s.col < col || s.col+s.width > c.cols {
				continue
			}
			b.WriteString(c.segment(row, col, s.col))
			b.WriteString(s.text)
			col = s.col + s.width
		}
		b.WriteString(c.segment(row, col, c.cols))
		rows[row] = b.String()
	}
	return strings.Join(rows, "\n")
}

// CellOf maps a scene pixel to the cell containing it.
func CellOf(p layout.Point) (col, row int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// PointOf maps a cell to the scene pixel at its center.
func PointOf(col, row int) layout.Point {
	return layout.Point{
		X: float64(col)*CellWidth + CellWidth/2,
		Y: float64(row)*CellHeight + CellHeight/2,
	}
}

// cellRect converts a pixel rectangle to an inclusive cell range.
func cellRect(r render.Rect) (c0, r0, c1, r1 int) {
	c0 = int(math.Round(r.X / CellWidth))
	r0 = int(math.Round(r.Y / CellHeight))
	c1 = int(math.Round((r.X+r.W)/CellWidth)) - 1
	r1 = int(math.Round((r.Y+r.H)/CellHeight)) - 1
	if c1 < c0 {
		c1 = c0
	}
	if r1 < r0 {
		r1 = r0
	}
	return c0, r0, c1, r1
}

// DrawScene draws connectors and node boxes of s onto a cols×rows canvas.
// The explanation panel is left to an overlay.
func DrawScene(s *render.Scene, cols, rows int) *Canvas {
	st := s.Style
	c := NewCanvas(cols, rows, lipColor(st.Background))
	for _, conn := range s.Connectors {
		drawConnector(c, conn, st, s.Zoom)
	}
	for _, n := range s.Nodes {
		drawNode(c, n, st)
	}
	return c
}

func drawConnector(c *Canvas, conn render.Connector, st render.Style, zoom float64) {
	ctrl := conn.Control()
	dx := math.Abs(conn.To.X-conn.From.X) / CellWidth
	dy := math.Abs(conn.To.Y-conn.From.Y) / CellHeight
	steps := int(3*math.Max(dx, dy)) + 1

	var period, on float64
	if conn.Dashed && len(st.DashPattern) >= 2 {
		on = st.DashPattern[0] * zoom
		period = (st.DashPattern[0] + st.DashPattern[1]) * zoom
	}

	fg := lipColor(st.Connector)
	bg := lipColor(st.Background)
	prev := conn.From
	var travelled float64
	lastCol, lastRow := -1, -1
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := quadratic(conn.From, ctrl, conn.To, t)
		travelled += math.Hypot(p.X-prev.X, p.Y-prev.Y)
		d := p.Sub(prev)
		prev = p
		if period > 0 && math.Mod(travelled, period) > on {
			continue
		}
		col, row := CellOf(p)
		if col == lastCol && row == lastRow {
			continue
		}
		lastCol, lastRow = col, row
		c.set(col, row, slopeGlyph(d), fg, bg, false)
	}
}

func quadratic(a, ctrl, b layout.Point, t float64) layout.Point {
	u := 1 - t
	return layout.Point{
		X: u*u*a.X + 2*u*t*ctrl.X + t*t*b.X,
		Y: u*u*a.Y + 2*u*t*ctrl.Y + t*t*b.Y,
	}
}

// slopeGlyph picks a line character for a step d measured in pixels.
func slopeGlyph(d layout.Point) rune {
	x := math.Abs(d.X) / CellWidth
	y := math.Abs(d.Y) / CellHeight
	switch {
	case y < x/2:
		return '─'
	case x < y/2:
		return '│'
	case (d.X > 0) == (d.Y > 0):
		return '╲'
	default:
		return '╱'
	}
}

type boxChars struct {
	tl, tr, bl, br, h, v rune
}

var (
	roundedBox = boxChars{'╭', '╮', '╰', '╯', '─', '│'}
	heavyBox   = boxChars{'┏', '┓', '┗', '┛', '━', '┃'}
)

func drawNode(c *Canvas, n render.NodeBox, st render.Style) {
	c0, r0, c1, r1 := cellRect(n.Rect)
	fill := lipColor(n.Fill)
	border := lipColor(n.Border)
	text := lipColor(st.Text)
	bold := n.Emphasized()

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c.set(col, row, ' ', text, fill, false)
		}
	}

	inner0, inner1 := c0, c1
	if r1-r0 >= 2 && c1-c0 >= 2 {
		chars := roundedBox
		if n.Emphasized() {
			chars = heavyBox
		}
		for col := c0 + 1; col < c1; col++ {
			c.set(col, r0, chars.h, border, fill, false)
			c.set(col, r1, chars.h, border, fill, false)
		}
		for row := r0 + 1; row < r1; row++ {
			c.set(c0, row, chars.v, border, fill, false)
			c.set(c1, row, chars.v, border, fill, false)
		}
		c.set(c0, r0, chars.tl, border, fill, false)
		c.set(c1, r0, chars.tr, border, fill, false)
		c.set(c0, r1, chars.bl, border, fill, false)
		c.set(c1, r1, chars.br, border, fill, false)
		inner0, inner1 = c0+1, c1-1
	}

	width := inner1 - inner0 - 1
	if width > 0 {
		label := runewidth.Truncate(n.Label, width, "…")
		start := inner0 + 1 + (width-runewidth.StringWidth(label))/2
		_, mid := CellOf(n.Rect.Center())
		mid = min(max(mid, r0), r1)
		c.text(start, mid, inner1, label, text, fill, bold)
	}

	if !n.Toggle.Empty() {
		col, row := CellOf(n.Toggle.Center())
		glyph := '+'
		if n.Expanded {
			glyph = '−'
		}
		c.set(col, row, glyph, lipColor(st.PanelText), lipColor(st.Background), true)
	}
}
