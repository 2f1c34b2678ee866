// Package layout places the visible part of a concept tree on a plane.
//
// The engine is a pure function of (tree, expansion, zoom): it keeps no state
// between calls and never consults the clock or randomness, so the same inputs
// always yield bit-identical coordinates.
package layout

import (
	"math"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// Default spacing between a parent and its children, in unzoomed pixels.
const (
	DefaultHorizontalSpacing = 240.0
	DefaultVerticalSpacing   = 90.0
)

// Point is a position in layout (local) coordinates. The root sits at the
// origin; the viewer translates by the pan offset to reach screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Edge connects a placed parent with one of its placed children.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Expansion answers whether a node's children are shown. Implementations
// must treat unknown ids as expanded.
type Expansion interface {
	IsExpanded(id string) bool
}

// AllExpanded is the default expansion: every node open.
type AllExpanded struct{}

// IsExpanded always returns true.
func (AllExpanded) IsExpanded(string) bool { return true }

// Result is the output of one layout pass.
type Result struct {
	Placements map[string]Point `json:"placements"`
	Edges      []Edge           `json:"edges"`
	Order      []string         `json:"order"` // placed ids in preorder
	Zoom       float64          `json:"zoom"`
}

// Has reports whether id received a placement.
func (r Result) Has(id string) bool {
	_, ok := r.Placements[id]
	return ok
}

// Bounds returns the bounding rectangle of all placements.
func (r Result) Bounds() (min, max Point) {
	if len(r.Order) == 0 {
		return Point{}, Point{}
	}
	min = Point{X: math.Inf(1), Y: math.Inf(1)}
	max = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, id := range r.Order {
		p := r.Placements[id]
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Engine holds the spacing constants. The zero value is not useful; use
// NewEngine or fill both fields.
type Engine struct {
	Horizontal float64
	Vertical   float64
}

// NewEngine returns an engine with the default spacing.
func NewEngine() Engine {
	return Engine{
		Horizontal: DefaultHorizontalSpacing,
		Vertical:   DefaultVerticalSpacing,
	}
}

// Offset returns the vertical offset of child i among k siblings for
// vertical spacing v: (i - (k-1)/2) * v. Offsets of a full sibling set sum
// to zero, which centers the cluster on the parent.
func Offset(i, k int, v float64) float64 {
	return (float64(i) - float64(k-1)/2) * v
}

// Offsets returns the offsets of all k siblings, top to bottom.
func Offsets(k int, v float64) []float64 {
	out := make([]float64, k)
	for i := range out {
		out[i] = Offset(i, k, v)
	}
	return out
}

// Layout places the root at the origin and every child i of k at
// (parent.X + H*zoom, parent.Y + Offset(i, k, V*zoom)). A collapsed node is
// placed but none of its descendants are.
func (e Engine) Layout(t *model.Tree, expanded Expansion, zoom float64) Result {
	res := Result{
		Placements: make(map[string]Point),
		Zoom:       zoom,
	}
	if t == nil || t.Len() == 0 {
		return res
	}
	if expanded == nil {
		expanded = AllExpanded{}
	}

	h := e.Horizontal * zoom
	v := e.Vertical * zoom

	// Explicit stack so depth is bounded by heap, not goroutine stack.
	type frame struct {
		index int
		at    Point
	}
	stack := []frame{{index: 0, at: Point{}}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := t.NodeAt(f.index)
		res.Placements[node.ID] = f.at
		res.Order = append(res.Order, node.ID)

		if !node.HasChildren() || !expanded.IsExpanded(node.ID) {
			continue
		}

		k := len(node.Children)
		for i := 0; i < k; i++ {
			child := t.NodeAt(node.Children[i])
			res.Edges = append(res.Edges, Edge{Parent: node.ID, Child: child.ID})
		}
		// Reverse push keeps Order in preorder.
		for i := k - 1; i >= 0; i-- {
			stack = append(stack, frame{
				index: node.Children[i],
				at: Point{
					X: f.at.X + h,
					Y: f.at.Y + Offset(i, k, v),
				},
			})
		}
	}

	return res
}
