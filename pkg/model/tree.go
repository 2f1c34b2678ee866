// tree.go - Flat arena view of a concept tree used by layout and interaction.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by NewTree.
var (
	ErrEmptyID      = errors.New("concept id cannot be empty")
	ErrDuplicateID  = errors.New("duplicate concept id")
	ErrTooDeep      = errors.New("concept tree exceeds maximum depth")
	ErrTooManyNodes = errors.New("concept tree exceeds maximum node count")
)

// Limits bounds how much of a generator response we are willing to index.
// A zero field means "no limit".
type Limits struct {
	MaxDepth int // deepest allowed depth (root = 0)
	MaxNodes int // total node budget
}

// DefaultLimits returns bounds far above what a generator normally emits
// (3-4 levels, 20-30 nodes) but low enough to keep the UI responsive.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth: 64,
		MaxNodes: 5000,
	}
}

// Node is one entry of the Tree arena. Parent and Children hold arena
// indices; Parent is -1 for the root.
type Node struct {
	ID          string
	Label       string
	Explanation string
	Depth       int
	Parent      int
	Children    []int
}

// HasChildren reports whether the node owns at least one child.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Tree is an immutable, id-indexed arena built from a Concept. Arena order
// is the preorder of the source tree, so index 0 is always the root.
type Tree struct {
	nodes  []Node
	index  map[string]int
	source Concept
}

// NewTree indexes root into an arena. Construction is iterative so hostile
// or malformed input cannot exhaust the goroutine stack; limits cap depth
// and node count.
func NewTree(root Concept, limits Limits) (*Tree, error) {
	t := &Tree{
		index: make(map[string]int),
	}

	type frame struct {
		concept *Concept
		parent  int
		depth   int
	}
	stack := []frame{{concept: &root, parent: -1, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := f.concept
		if c.ID == "" {
			return nil, fmt.Errorf("%w (label %q, depth %d)", ErrEmptyID, c.Label, f.depth)
		}
		if _, dup := t.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, c.ID)
		}
		if limits.MaxDepth > 0 && f.depth > limits.MaxDepth {
			return nil, fmt.Errorf("%w: %q at depth %d (max %d)", ErrTooDeep, c.ID, f.depth, limits.MaxDepth)
		}
		if limits.MaxNodes > 0 && len(t.nodes) >= limits.MaxNodes {
			return nil, fmt.Errorf("%w (max %d)", ErrTooManyNodes, limits.MaxNodes)
		}

		idx := len(t.nodes)
		t.nodes = append(t.nodes, Node{
			ID:          c.ID,
			Label:       c.Label,
			Explanation: c.Explanation,
			Depth:       f.depth,
			Parent:      f.parent,
		})
		t.index[c.ID] = idx
		if f.parent >= 0 {
			t.nodes[f.parent].Children = append(t.nodes[f.parent].Children, idx)
		}

		// Push in reverse so children pop (and are appended to the parent) in order.
		for i := len(c.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{concept: &c.Children[i], parent: idx, depth: f.depth + 1})
		}
	}

	t.source = root.Clone()
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// RootID returns the id of the root node.
func (t *Tree) RootID() string {
	return t.nodes[0].ID
}

// Len returns the total number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NodeAt returns the node at arena index i. The Children slice is shared
// with the arena and must not be modified.
func (t *Tree) NodeAt(i int) Node {
	return t.nodes[i]
}

// Index returns the arena index for id.
func (t *Tree) Index(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Node looks up a node by id. A nil Tree has no nodes.
func (t *Tree) Node(id string) (Node, bool) {
	if t == nil {
		return Node{}, false
	}
	i, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[i], true
}

// Contains reports whether id names a node of this tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.Node(id)
	return ok
}

// HasChildren reports whether id has at least one child. Unknown ids have none.
func (t *Tree) HasChildren(id string) bool {
	n, ok := t.Node(id)
	return ok && n.HasChildren()
}

// Children returns the ordered child ids of id.
func (t *Tree) Children(id string) []string {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = t.nodes[c].ID
	}
	return ids
}

// Depth returns the depth of id (root = 0), or -1 if unknown.
func (t *Tree) Depth(id string) int {
	n, ok := t.Node(id)
	if !ok {
		return -1
	}
	return n.Depth
}

// MaxDepth returns the depth of the deepest node.
func (t *Tree) MaxDepth() int {
	deepest := 0
	for _, n := range t.nodes {
		if n.Depth > deepest {
			deepest = n.Depth
		}
	}
	return deepest
}

// Walk visits nodes in preorder until fn returns false.
func (t *Tree) Walk(fn func(Node) bool) {
	for _, n := range t.nodes {
		if !fn(n) {
			return
		}
	}
}

// IDs returns all ids in preorder.
func (t *Tree) IDs() []string {
	ids := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Concept returns a copy of the source data, suitable for export.
func (t *Tree) Concept() Concept {
	return t.source.Clone()
}
