package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// ErrEmptyScene is returned by backends asked to draw a scene with no area.
var ErrEmptyScene = errors.New("scene has no drawable area")

// approximate advance of one character as a fraction of the font size
const charAdvance = 0.6

// WriteSVG draws the scene as a standalone SVG document.
func WriteSVG(w io.Writer, s *Scene) error {
	width, height := px(s.Width), px(s.Height)
	if width <= 0 || height <= 0 {
		return ErrEmptyScene
	}
	st := s.Style
	zoom := s.Zoom

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title("mind map")
	canvas.Rect(0, 0, width, height, "fill:"+Hex(st.Background))

	canvas.Gid("connectors")
	for _, c := range s.Connectors {
		ctrl := c.Control()
		d := fmt.Sprintf("M %.1f %.1f Q %.1f %.1f %.1f %.1f", c.From.X, c.From.Y, ctrl.X, ctrl.Y, c.To.X, c.To.Y)
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", Hex(st.Connector), 2*zoom)
		if c.Dashed {
			style += ";stroke-dasharray:" + dashArray(st.DashPattern, zoom)
		}
		canvas.Path(d, style)
	}
	canvas.Gend()

	fontSize := st.FontSize * zoom
	canvas.Gid("nodes")
	for _, n := range s.Nodes {
		canvas.Group(fmt.Sprintf(`data-id="%s"`, attrEscape(n.ID)))
		canvas.Title(n.Label)
		r := n.Rect
		radius := px(st.CornerRadius * zoom)
		canvas.Roundrect(px(r.X), px(r.Y), px(r.W), px(r.H), radius, radius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", Hex(n.Fill), Hex(n.Border), n.BorderWidth))

		label := fitLabel(n.Label, r.W-2*fontSize, fontSize)
		c := r.Center()
		canvas.Text(px(c.X), px(c.Y), label,
			fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:system-ui,sans-serif;text-anchor:middle;dominant-baseline:middle", Hex(st.Text), fontSize))

		if !n.Toggle.Empty() {
			t := n.Toggle
			canvas.Rect(px(t.X), px(t.Y), px(t.W), px(t.H),
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", Hex(st.Background), Hex(n.Border)))
			tc := t.Center()
			canvas.Text(px(tc.X), px(tc.Y), toggleGlyph(n.Expanded),
				fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;text-anchor:middle;dominant-baseline:central", Hex(st.PanelText), t.H))
		}
		canvas.Gend()
	}
	canvas.Gend()

	if p := s.Panel; p != nil {
		writePanelSVG(canvas, p, st)
	}

	canvas.End()
	return nil
}

func writePanelSVG(canvas *svg.SVG, p *Panel, st Style) {
	r := p.Rect
	canvas.Gid("panel")
	canvas.Roundrect(px(r.X), px(r.Y), px(r.W), px(r.H), 12, 12,
		fmt.Sprintf("fill:%s;fill-opacity:0.95;stroke:%s;stroke-width:1", Hex(st.PanelFill), Hex(st.Connector)))

	pad := 16.0
	canvas.Text(px(r.X+pad), px(r.Y+pad+st.FontSize),
		fitLabel(p.Title, r.W-2*pad-st.CloseSize, st.FontSize+2),
		fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:system-ui,sans-serif;font-weight:600", Hex(st.PanelText), st.FontSize+2))

	bodyStyle := fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:system-ui,sans-serif", Hex(st.PanelText), st.FontSize-1)
	if p.Placeholder {
		bodyStyle += ";font-style:italic;fill-opacity:0.7"
	}
	lineHeight := st.FontSize * 1.4
	y := r.Y + pad + st.FontSize + lineHeight*1.5
	for _, line := range wrapBody(p.Body, r.W-2*pad, st.FontSize-1) {
		if y > r.Y+r.H-pad {
			break
		}
		canvas.Text(px(r.X+pad), px(y), line, bodyStyle)
		y += lineHeight
	}

	c := p.Close
	canvas.Rect(px(c.X), px(c.Y), px(c.W), px(c.H), "fill:none;stroke:"+Hex(st.PanelText)+";stroke-opacity:0.4")
	cc := c.Center()
	canvas.Text(px(cc.X), px(cc.Y), "×",
		fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:system-ui,sans-serif;text-anchor:middle;dominant-baseline:central", Hex(st.PanelText), c.H))
	canvas.Gend()
}

// fitLabel truncates label so it fits in width pixels at fontSize.
func fitLabel(label string, width, fontSize float64) string {
	cells := int(width / (fontSize * charAdvance))
	if cells < 1 {
		return ""
	}
	return runewidth.Truncate(label, cells, "…")
}

// wrapBody word-wraps text to the character budget of width pixels.
func wrapBody(text string, width, fontSize float64) []string {
	cols := int(width / (fontSize * charAdvance))
	if cols < 8 {
		cols = 8
	}
	return strings.Split(wordwrap.String(text, cols), "\n")
}

func toggleGlyph(expanded bool) string {
	if expanded {
		return "−"
	}
	return "+"
}

func dashArray(pattern []float64, zoom float64) string {
	parts := make([]string, len(pattern))
	for i, v := range pattern {
		parts[i] = fmt.Sprintf("%.1f", v*zoom)
	}
	return strings.Join(parts, ",")
}

func attrEscape(s string) string {
	return strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;").Replace(s)
}

func px(v float64) int {
	return int(math.Round(v))
}
