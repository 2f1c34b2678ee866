// Package interaction turns pointer and keyboard events into mind map view
// state: which nodes are expanded, which one is selected, and where the
// viewport sits. Every event is followed by a synchronous relayout so the
// published Frame always matches the state that produced it.
package interaction

import (
	"log/slog"
	"math"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// Direction is a keyboard navigation step.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to receive every new Frame.
func WithObserver(fn func(Frame)) Option {
	return func(c *Controller) {
		c.onFrame = fn
	}
}

// WithLogger sets the logger used for state transitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithZoom sets the starting zoom, clamped to [MinZoom, MaxZoom].
func WithZoom(zoom float64) Option {
	return func(c *Controller) {
		c.view.Zoom = StepZoom(zoom, 0)
	}
}

// Controller owns the interaction state for one tree. It is not safe for
// concurrent use; the host serializes events (bubbletea Update does).
type Controller struct {
	engine   layout.Engine
	tree     *model.Tree
	expanded ExpandedState

	selected string
	hovered  string

	view     ViewState
	viewport Size
	// panned is set once the user moves the view; until then a resize
	// keeps the root centered.
	panned bool

	mode         Mode
	dragOrigin   layout.Point
	pointerStart layout.Point

	fullscreen bool

	frame   Frame
	onFrame func(Frame)
	logger  *slog.Logger
}

// New returns a controller showing tree (which may be nil) with the root
// centered in a viewport of the given size.
func New(engine layout.Engine, tree *model.Tree, viewport Size, opts ...Option) *Controller {
	c := &Controller{
		engine:   engine,
		tree:     tree,
		expanded: NewExpandedState(),
		viewport: viewport,
		view:     ViewState{Pan: viewport.Center(), Zoom: DefaultZoom},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.relayout()
	return c
}

// Frame returns the most recent frame.
func (c *Controller) Frame() Frame { return c.frame }

// Tree returns the tree currently shown, or nil.
func (c *Controller) Tree() *model.Tree { return c.tree }

// Mode returns the pointer state.
func (c *Controller) Mode() Mode { return c.mode }

// Selected returns the selected id, or "".
func (c *Controller) Selected() string { return c.selected }

// View returns the current view transform.
func (c *Controller) View() ViewState { return c.view }

// PointerDown starts a pan on the canvas, selects a node, toggles
// expansion or closes the panel depending on what was hit.
func (c *Controller) PointerDown(p layout.Point, target Target) {
	defer c.relayout()

	if c.mode == Panning {
		return
	}
	switch target.Kind {
	case TargetCanvas:
		c.mode = Panning
		c.dragOrigin = c.view.Pan
		c.pointerStart = p
	case TargetNode:
		c.selectNode(target.ID)
	case TargetToggle:
		c.toggle(target.ID)
	case TargetPanelClose:
		c.selected = ""
	case TargetPanel, TargetOutside:
		// Clicks inside the panel and outside the canvas do nothing.
	}
}

// PointerMove drags the view while panning. Moves outside the canvas keep
// panning until the pointer is released.
func (c *Controller) PointerMove(p layout.Point) {
	defer c.relayout()

	if c.mode != Panning {
		return
	}
	c.view.Pan = c.dragOrigin.Add(p.Sub(c.pointerStart))
	c.panned = true
}

// PointerUp ends a pan.
func (c *Controller) PointerUp(layout.Point) {
	defer c.relayout()

	if c.mode == Panning {
		c.mode = Idle
	}
}

// Hover sets the hovered node; "" clears it.
func (c *Controller) Hover(id string) {
	defer c.relayout()

	if id != "" && (c.tree == nil || !c.tree.Contains(id)) {
		id = ""
	}
	c.hovered = id
}

// ZoomIn raises zoom by one step, up to MaxZoom.
func (c *Controller) ZoomIn() {
	defer c.relayout()
	c.view.Zoom = StepZoom(c.view.Zoom, ZoomStep)
}

// ZoomOut lowers zoom by one step, down to MinZoom.
func (c *Controller) ZoomOut() {
	defer c.relayout()
	c.view.Zoom = StepZoom(c.view.Zoom, -ZoomStep)
}

// StepZoom returns zoom+delta rounded to one decimal and clamped to
// [MinZoom, MaxZoom].
func StepZoom(zoom, delta float64) float64 {
	z := math.Round((zoom+delta)*10) / 10
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// ClosePanel clears the selection.
func (c *Controller) ClosePanel() {
	defer c.relayout()
	c.selected = ""
}

// ToggleFullscreen flips the fullscreen flag.
func (c *Controller) ToggleFullscreen() {
	defer c.relayout()
	c.fullscreen = !c.fullscreen
}

// Resize records the new viewport size. The root stays centered until the
// user has panned.
func (c *Controller) Resize(w, h float64) {
	defer c.relayout()

	c.viewport = Size{W: w, H: h}
	if !c.panned {
		c.view.Pan = c.viewport.Center()
	}
}

// Reset replaces the tree and discards all interaction state: every node
// expanded, no selection, root centered at the default zoom.
func (c *Controller) Reset(tree *model.Tree) {
	defer c.relayout()

	c.tree = tree
	c.expanded = NewExpandedState()
	c.selected = ""
	c.hovered = ""
	c.mode = Idle
	c.panned = false
	c.view = ViewState{Pan: c.viewport.Center(), Zoom: DefaultZoom}

	if tree != nil {
		c.logger.Debug("controller reset", "root", tree.RootID(), "nodes", tree.Len())
	}
}

// ToggleExpand flips expansion of id. Leaves and unknown ids are ignored.
func (c *Controller) ToggleExpand(id string) {
	defer c.relayout()
	c.toggle(id)
}

// ExpandAll clears every explicit collapse.
func (c *Controller) ExpandAll() {
	defer c.relayout()
	c.expanded = NewExpandedState()
}

// CollapseAll collapses every node that has children, leaving only the
// root visible. The selection is kept.
func (c *Controller) CollapseAll() {
	defer c.relayout()

	if c.tree == nil {
		return
	}
	c.expanded = NewExpandedState()
	c.tree.Walk(func(n model.Node) bool {
		if n.HasChildren() {
			c.expanded.collapsed[n.ID] = true
		}
		return true
	})
}

// Select makes id the single selected node. Unknown ids are ignored.
func (c *Controller) Select(id string) {
	defer c.relayout()
	c.selectNode(id)
}

// Recenter moves the root back to the viewport center without changing
// zoom.
func (c *Controller) Recenter() {
	defer c.relayout()

	c.view.Pan = c.viewport.Center()
	c.panned = false
}

// Pan shifts the view by d, as arrow keys do.
func (c *Controller) Pan(d layout.Point) {
	defer c.relayout()

	if c.mode == Panning {
		return
	}
	c.view.Pan = c.view.Pan.Add(d)
	c.panned = true
}

// Navigate moves the selection through the visible tree. With nothing
// selected any direction selects the root. Right expands a collapsed node
// before descending; Left collapses an expanded node before moving to the
// parent. Up and Down step between siblings.
func (c *Controller) Navigate(dir Direction) {
	defer c.relayout()

	if c.tree == nil {
		return
	}
	node, ok := c.tree.Node(c.selected)
	if !ok {
		c.selected = c.tree.RootID()
		return
	}

	switch dir {
	case Right:
		if !node.HasChildren() {
			return
		}
		if !c.expanded.IsExpanded(node.ID) {
			delete(c.expanded.collapsed, node.ID)
			return
		}
		c.selected = c.tree.NodeAt(node.Children[0]).ID
	case Left:
		if node.HasChildren() && c.expanded.IsExpanded(node.ID) {
			c.expanded.collapsed[node.ID] = true
			return
		}
		if node.Parent >= 0 {
			c.selected = c.tree.NodeAt(node.Parent).ID
		}
	case Up, Down:
		if node.Parent < 0 {
			return
		}
		siblings := c.tree.NodeAt(node.Parent).Children
		for i, idx := range siblings {
			if c.tree.NodeAt(idx).ID != node.ID {
				continue
			}
			next := i + 1
			if dir == Up {
				next = i - 1
			}
			if next >= 0 && next < len(siblings) {
				c.selected = c.tree.NodeAt(siblings[next]).ID
			}
			return
		}
	}
}

func (c *Controller) selectNode(id string) {
	if c.tree == nil || !c.tree.Contains(id) {
		return
	}
	c.selected = id
}

func (c *Controller) toggle(id string) {
	if c.tree == nil || !c.tree.HasChildren(id) {
		return
	}
	if c.expanded.collapsed[id] {
		delete(c.expanded.collapsed, id)
	} else {
		c.expanded.collapsed[id] = true
	}
}

// relayout recomputes the layout and publishes a new frame.
func (c *Controller) relayout() {
	c.frame = Frame{
		Layout:     c.engine.Layout(c.tree, c.expanded, c.view.Zoom),
		View:       c.view,
		Expanded:   c.expanded.clone(),
		Selected:   c.selected,
		Hovered:    c.hovered,
		Mode:       c.mode,
		Fullscreen: c.fullscreen,
		Viewport:   c.viewport,
	}
	if c.onFrame != nil {
		c.onFrame(c.frame)
	}
}
