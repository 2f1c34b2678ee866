package render

import (
	"fmt"
	"io"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
	italic  *opentype.Font
}

var loadFonts = sync.OnceValues(func() (fontSet, error) {
	var fs fontSet
	var err error
	if fs.regular, err = opentype.Parse(goregular.TTF); err != nil {
		return fs, fmt.Errorf("parse regular font: %w", err)
	}
	if fs.bold, err = opentype.Parse(gobold.TTF); err != nil {
		return fs, fmt.Errorf("parse bold font: %w", err)
	}
	if fs.italic, err = opentype.Parse(goitalic.TTF); err != nil {
		return fs, fmt.Errorf("parse italic font: %w", err)
	}
	return fs, nil
})

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// WritePNG rasterizes the scene and encodes it as PNG.
func WritePNG(w io.Writer, s *Scene) error {
	width, height := px(s.Width), px(s.Height)
	if width <= 0 || height <= 0 {
		return ErrEmptyScene
	}
	fonts, err := loadFonts()
	if err != nil {
		return err
	}
	st := s.Style
	zoom := s.Zoom

	labelFace, err := newFace(fonts.regular, st.FontSize*zoom)
	if err != nil {
		return fmt.Errorf("label face: %w", err)
	}
	defer labelFace.Close()

	dc := gg.NewContext(width, height)
	dc.SetColor(st.Background)
	dc.Clear()

	dc.SetColor(st.Connector)
	dc.SetLineWidth(2 * zoom)
	for _, c := range s.Connectors {
		if c.Dashed {
			dash := make([]float64, len(st.DashPattern))
			for i, v := range st.DashPattern {
				dash[i] = v * zoom
			}
			dc.SetDash(dash...)
		} else {
			dc.SetDash()
		}
		ctrl := c.Control()
		dc.MoveTo(c.From.X, c.From.Y)
		dc.QuadraticTo(ctrl.X, ctrl.Y, c.To.X, c.To.Y)
		dc.Stroke()
	}
	dc.SetDash()

	dc.SetFontFace(labelFace)
	for _, n := range s.Nodes {
		r := n.Rect
		radius := st.CornerRadius * zoom

		dc.SetColor(n.Fill)
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, radius)
		dc.Fill()

		dc.SetColor(n.Border)
		dc.SetLineWidth(n.BorderWidth)
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, radius)
		dc.Stroke()

		dc.SetColor(st.Text)
		c := r.Center()
		dc.DrawStringAnchored(measureFit(dc, n.Label, r.W-2*st.FontSize*zoom), c.X, c.Y, 0.5, 0.5)

		if !n.Toggle.Empty() {
			drawTogglePNG(dc, n, st)
		}
	}

	if s.Panel != nil {
		if err := drawPanelPNG(dc, s.Panel, st, fonts); err != nil {
			return err
		}
	}

	return dc.EncodePNG(w)
}

func drawTogglePNG(dc *gg.Context, n NodeBox, st Style) {
	t := n.Toggle
	dc.SetColor(st.Background)
	dc.DrawRectangle(t.X, t.Y, t.W, t.H)
	dc.Fill()
	dc.SetColor(n.Border)
	dc.SetLineWidth(1)
	dc.DrawRectangle(t.X, t.Y, t.W, t.H)
	dc.Stroke()

	// Draw the glyph as strokes so it does not depend on the label face size.
	c := t.Center()
	arm := t.W * 0.3
	dc.SetColor(st.PanelText)
	dc.SetLineWidth(1.5)
	dc.DrawLine(c.X-arm, c.Y, c.X+arm, c.Y)
	if !n.Expanded {
		dc.DrawLine(c.X, c.Y-arm, c.X, c.Y+arm)
	}
	dc.Stroke()
}

func drawPanelPNG(dc *gg.Context, p *Panel, st Style, fonts fontSet) error {
	titleFace, err := newFace(fonts.bold, st.FontSize+2)
	if err != nil {
		return fmt.Errorf("panel title face: %w", err)
	}
	defer titleFace.Close()
	bodyFont := fonts.regular
	if p.Placeholder {
		bodyFont = fonts.italic
	}
	bodyFace, err := newFace(bodyFont, st.FontSize-1)
	if err != nil {
		return fmt.Errorf("panel body face: %w", err)
	}
	defer bodyFace.Close()

	r := p.Rect
	pad := 16.0

	fill := st.PanelFill
	fill.A = 0xf2
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 12)
	dc.Fill()
	dc.SetColor(st.Connector)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 12)
	dc.Stroke()

	dc.SetFontFace(titleFace)
	dc.SetColor(st.PanelText)
	dc.DrawStringAnchored(measureFit(dc, p.Title, r.W-2*pad-st.CloseSize), r.X+pad, r.Y+pad+st.FontSize/2, 0, 0.5)

	dc.SetFontFace(bodyFace)
	body := st.PanelText
	if p.Placeholder {
		body = Shade(body, 0.3)
	}
	dc.SetColor(body)
	lineHeight := st.FontSize * 1.4
	y := r.Y + pad + st.FontSize + lineHeight
	for _, line := range dc.WordWrap(p.Body, r.W-2*pad) {
		if y > r.Y+r.H-pad {
			break
		}
		dc.DrawStringAnchored(line, r.X+pad, y, 0, 0.5)
		y += lineHeight
	}

	c := p.Close
	dc.SetColor(st.PanelText)
	dc.SetLineWidth(1.5)
	inset := c.W * 0.25
	dc.DrawLine(c.X+inset, c.Y+inset, c.X+c.W-inset, c.Y+c.H-inset)
	dc.DrawLine(c.X+c.W-inset, c.Y+inset, c.X+inset, c.Y+c.H-inset)
	dc.Stroke()
	return nil
}

// measureFit trims s rune by rune until it fits width with the current face.
func measureFit(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}
