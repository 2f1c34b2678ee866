package interaction

import (
	"fmt"
	"sort"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
)

// Zoom bounds and step for the zoom buttons.
const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.1
	DefaultZoom = 1.0
)

// Mode is the pointer state of the controller.
type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// TargetKind identifies what a pointer event landed on.
type TargetKind int

const (
	TargetCanvas     TargetKind = iota // empty canvas area
	TargetNode                         // a node body
	TargetToggle                       // a node's expand/collapse affordance
	TargetPanel                        // the explanation panel body
	TargetPanelClose                   // the explanation panel close control
	TargetOutside                      // outside the visible canvas
)

func (k TargetKind) String() string {
	switch k {
	case TargetCanvas:
		return "canvas"
	case TargetNode:
		return "node"
	case TargetToggle:
		return "toggle"
	case TargetPanel:
		return "panel"
	case TargetPanelClose:
		return "panel-close"
	case TargetOutside:
		return "outside"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target is the result of hit-testing a pointer position. ID is set for
// node and toggle targets.
type Target struct {
	Kind TargetKind
	ID   string
}

// Size is a viewport size in screen pixels.
type Size struct {
	W float64
	H float64
}

// Center returns the middle of the viewport.
func (s Size) Center() layout.Point {
	return layout.Point{X: s.W / 2, Y: s.H / 2}
}

// Contains reports whether p lies inside the viewport.
func (s Size) Contains(p layout.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.W && p.Y < s.H
}

// ViewState is the viewport transform: screen = placement + Pan.
// Placements already include zoom.
type ViewState struct {
	Pan  layout.Point
	Zoom float64
}

// ExpandedState maps node id to expanded. Only explicit collapses are
// stored; every other node is expanded. It satisfies layout.Expansion.
type ExpandedState struct {
	collapsed map[string]bool
}

// NewExpandedState returns a state with every node expanded.
func NewExpandedState() ExpandedState {
	return ExpandedState{collapsed: make(map[string]bool)}
}

// IsExpanded reports whether id shows its children.
func (s ExpandedState) IsExpanded(id string) bool {
	return !s.collapsed[id]
}

// Collapsed returns the explicitly collapsed ids, sorted.
func (s ExpandedState) Collapsed() []string {
	ids := make([]string, 0, len(s.collapsed))
	for id := range s.collapsed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s ExpandedState) clone() ExpandedState {
	c := NewExpandedState()
	for id := range s.collapsed {
		c.collapsed[id] = true
	}
	return c
}

// Frame is a consistent snapshot of everything the renderer consumes:
// the layout for the current state plus the read-only view state.
type Frame struct {
	Layout     layout.Result
	View       ViewState
	Expanded   ExpandedState
	Selected   string // "" when nothing is selected
	Hovered    string
	Mode       Mode
	Fullscreen bool
	Viewport   Size
}

// Screen returns the screen position of a placed node.
func (f Frame) Screen(id string) (layout.Point, bool) {
	p, ok := f.Layout.Placements[id]
	if !ok {
		return layout.Point{}, false
	}
	return p.Add(f.View.Pan), true
}
