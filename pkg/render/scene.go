// Package render turns a controller frame into a Scene of screen-space
// primitives and draws scenes as SVG or PNG. Building a scene has no side
// effects; backends only write to the io.Writer they are given.
package render

import (
	"image/color"
	"strings"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// DefaultPlaceholder is shown in the panel when a node has no explanation.
const DefaultPlaceholder = "No explanation is available for this concept yet."

// Palette is indexed by depth mod len(Palette).
var Palette = [...]color.RGBA{
	{0x8b, 0xe9, 0xfd, 0xff}, // cyan
	{0x50, 0xfa, 0x7b, 0xff}, // green
	{0xbd, 0x93, 0xf9, 0xff}, // purple
	{0xff, 0xb8, 0x6c, 0xff}, // orange
	{0xff, 0x79, 0xc6, 0xff}, // pink
	{0xf1, 0xfa, 0x8c, 0xff}, // yellow
}

// DepthColor returns the fill for a node at depth.
func DepthColor(depth int) color.RGBA {
	if depth < 0 {
		depth = -depth
	}
	return Palette[depth%len(Palette)]
}

// Style holds the unzoomed sizes and colors used to build a scene.
type Style struct {
	NodeWidth     float64
	NodeHeight    float64
	CornerRadius  float64
	ToggleSize    float64
	EmphasisScale float64

	BorderWidth         float64
	EmphasisBorderWidth float64

	PanelWidth   float64
	PanelHeight  float64
	PanelMargin  float64
	CloseSize    float64
	Placeholder  string
	FontSize     float64
	DashPattern  []float64

	// BorderShade darkens the fill toward black for unemphasized borders.
	BorderShade float64

	Background color.RGBA
	Emphasis   color.RGBA
	Text       color.RGBA
	Connector  color.RGBA
	PanelFill  color.RGBA
	PanelText  color.RGBA
}

// DefaultStyle returns the dark theme used by every backend.
func DefaultStyle() Style {
	return Style{
		NodeWidth:     180,
		NodeHeight:    56,
		CornerRadius:  10,
		ToggleSize:    16,
		EmphasisScale: 1.08,

		BorderWidth:         1.5,
		EmphasisBorderWidth: 3,

		PanelWidth:  320,
		PanelHeight: 260,
		PanelMargin: 16,
		CloseSize:   20,
		Placeholder: DefaultPlaceholder,
		FontSize:    14,
		DashPattern: []float64{6, 4},
		BorderShade: 0.35,

		Background: color.RGBA{0x1e, 0x1e, 0x2e, 0xff},
		Emphasis:   color.RGBA{0xf8, 0xf8, 0xf2, 0xff},
		Text:       color.RGBA{0x28, 0x2a, 0x36, 0xff},
		Connector:  color.RGBA{0x62, 0x72, 0xa4, 0xff},
		PanelFill:  color.RGBA{0x2a, 0x2a, 0x3e, 0xff},
		PanelText:  color.RGBA{0xf8, 0xf8, 0xf2, 0xff},
	}
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p layout.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Center returns the middle of r.
func (r Rect) Center() layout.Point {
	return layout.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// NodeBox is one drawn node.
type NodeBox struct {
	ID          string
	Label       string
	Depth       int
	Rect        Rect
	Fill        color.RGBA
	Border      color.RGBA
	BorderWidth float64
	Hovered     bool
	Selected    bool
	HasChildren bool
	Expanded    bool
	// Toggle is the expand/collapse affordance; empty for leaves.
	Toggle Rect
}

// Emphasized reports whether the node is hovered or selected.
func (n NodeBox) Emphasized() bool {
	return n.Hovered || n.Selected
}

// Connector is a drawn edge from the right side of the parent box to the
// left side of the child box.
type Connector struct {
	Parent string
	Child  string
	From   layout.Point
	To     layout.Point
	Dashed bool
}

// Control returns the quadratic curve control point between From and To.
func (c Connector) Control() layout.Point {
	return layout.Point{X: (c.From.X + c.To.X) / 2, Y: c.To.Y}
}

// Panel is the explanation overlay for the selected node.
type Panel struct {
	NodeID string
	Title  string
	Body   string
	// Placeholder is set when Body is the generic sentence rather than the
	// node's own explanation.
	Placeholder bool
	Rect        Rect
	Close       Rect
}

// Scene is everything a backend needs to draw one frame.
type Scene struct {
	Width      float64
	Height     float64
	Zoom       float64
	Fullscreen bool
	Style      Style
	Connectors []Connector
	// Nodes are in draw order; emphasized nodes come last so they sit on top.
	Nodes []NodeBox
	Panel *Panel
}

// Build converts a frame into a scene. Node centers sit at placement + pan.
// Box sizes scale with zoom and again by EmphasisScale when hovered or
// selected.
func Build(t *model.Tree, f interaction.Frame, s Style) *Scene {
	zoom := f.View.Zoom
	if zoom <= 0 {
		zoom = interaction.DefaultZoom
	}
	scene := &Scene{
		Width:      f.Viewport.W,
		Height:     f.Viewport.H,
		Zoom:       zoom,
		Fullscreen: f.Fullscreen,
		Style:      s,
	}
	if t == nil {
		return scene
	}

	w := s.NodeWidth * zoom
	h := s.NodeHeight * zoom

	var emphasized []NodeBox
	for _, id := range f.Layout.Order {
		node, ok := t.Node(id)
		if !ok {
			continue
		}
		center, _ := f.Screen(id)
		box := NodeBox{
			ID:          id,
			Label:       node.Label,
			Depth:       node.Depth,
			Fill:        DepthColor(node.Depth),
			Border:      Shade(DepthColor(node.Depth), s.BorderShade),
			BorderWidth: s.BorderWidth,
			Hovered:     id == f.Hovered,
			Selected:    id == f.Selected,
			HasChildren: node.HasChildren(),
			Expanded:    f.Expanded.IsExpanded(id),
		}
		bw, bh := w, h
		if box.Emphasized() {
			bw *= s.EmphasisScale
			bh *= s.EmphasisScale
			box.Border = s.Emphasis
			box.BorderWidth = s.EmphasisBorderWidth
		}
		box.Rect = Rect{X: center.X - bw/2, Y: center.Y - bh/2, W: bw, H: bh}
		if box.HasChildren {
			ts := s.ToggleSize * zoom
			box.Toggle = Rect{X: box.Rect.X + box.Rect.W - ts/2, Y: center.Y - ts/2, W: ts, H: ts}
		}
		if box.Emphasized() {
			emphasized = append(emphasized, box)
			continue
		}
		scene.Nodes = append(scene.Nodes, box)
	}
	scene.Nodes = append(scene.Nodes, emphasized...)

	for _, e := range f.Layout.Edges {
		from, okFrom := f.Screen(e.Parent)
		to, okTo := f.Screen(e.Child)
		if !okFrom || !okTo {
			continue
		}
		scene.Connectors = append(scene.Connectors, Connector{
			Parent: e.Parent,
			Child:  e.Child,
			From:   layout.Point{X: from.X + w/2, Y: from.Y},
			To:     layout.Point{X: to.X - w/2, Y: to.Y},
			Dashed: t.Depth(e.Child) > 1,
		})
	}

	if node, ok := t.Node(f.Selected); ok {
		scene.Panel = buildPanel(node, scene.Width, scene.Height, s)
	}
	return scene
}

func buildPanel(node model.Node, width, height float64, s Style) *Panel {
	p := &Panel{
		NodeID: node.ID,
		Title:  node.Label,
		Body:   strings.TrimSpace(node.Explanation),
	}
	if p.Body == "" {
		p.Body = s.Placeholder
		if p.Body == "" {
			p.Body = DefaultPlaceholder
		}
		p.Placeholder = true
	}

	pw := s.PanelWidth
	ph := s.PanelHeight
	if width > 0 && pw > width-2*s.PanelMargin {
		pw = width - 2*s.PanelMargin
	}
	if height > 0 && ph > height-2*s.PanelMargin {
		ph = height - 2*s.PanelMargin
	}
	x := width - pw - s.PanelMargin
	if x < 0 {
		x = 0
	}
	p.Rect = Rect{X: x, Y: s.PanelMargin, W: pw, H: ph}
	p.Close = Rect{
		X: p.Rect.X + p.Rect.W - s.CloseSize - 8,
		Y: p.Rect.Y + 8,
		W: s.CloseSize,
		H: s.CloseSize,
	}
	return p
}

// Node returns the drawn box for id.
func (s *Scene) Node(id string) (NodeBox, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeBox{}, false
}

// HitTest resolves a screen point to a target. Priority is panel close,
// panel, toggle, node, then canvas; topmost nodes win. Points outside the
// scene are TargetOutside.
func (s *Scene) HitTest(p layout.Point) interaction.Target {
	if !(interaction.Size{W: s.Width, H: s.Height}).Contains(p) {
		return interaction.Target{Kind: interaction.TargetOutside}
	}
	if s.Panel != nil {
		if s.Panel.Close.Contains(p) {
			return interaction.Target{Kind: interaction.TargetPanelClose, ID: s.Panel.NodeID}
		}
		if s.Panel.Rect.Contains(p) {
			return interaction.Target{Kind: interaction.TargetPanel, ID: s.Panel.NodeID}
		}
	}
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		n := s.Nodes[i]
		if !n.Toggle.Empty() && n.Toggle.Contains(p) {
			return interaction.Target{Kind: interaction.TargetToggle, ID: n.ID}
		}
	}
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		if s.Nodes[i].Rect.Contains(p) {
			return interaction.Target{Kind: interaction.TargetNode, ID: s.Nodes[i].ID}
		}
	}
	return interaction.Target{Kind: interaction.TargetCanvas}
}
