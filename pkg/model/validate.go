package model

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ProblemKind classifies a contract violation found by Validate.
type ProblemKind string

const (
	ProblemEmptyID     ProblemKind = "empty_id"
	ProblemEmptyLabel  ProblemKind = "empty_label"
	ProblemDuplicateID ProblemKind = "duplicate_id"
	ProblemCycle       ProblemKind = "id_cycle"
	ProblemTooDeep     ProblemKind = "too_deep"
	ProblemTooMany     ProblemKind = "too_many_nodes"
)

// Problem is a single finding from Validate.
type Problem struct {
	Kind   ProblemKind `json:"kind"`
	ID     string      `json:"id,omitempty"`
	Path   []string    `json:"path,omitempty"` // labels from the root down to the offending node
	Detail string      `json:"detail"`
}

func (p Problem) String() string {
	if len(p.Path) == 0 {
		return fmt.Sprintf("%s: %s", p.Kind, p.Detail)
	}
	return fmt.Sprintf("%s: %s (at %s)", p.Kind, p.Detail, strings.Join(p.Path, " > "))
}

// Validate reports every generator contract violation in root rather than
// stopping at the first one. Reusing an ancestor's id turns the id graph
// into a cycle; those are found with Johnson's algorithm over a gonum graph.
// A nil result means the tree is valid under limits.
func Validate(root Concept, limits Limits) []Problem {
	var problems []Problem

	g := simple.NewDirectedGraph()
	nodeIDs := make(map[string]int64)
	idOf := func(id string) int64 {
		if n, ok := nodeIDs[id]; ok {
			return n
		}
		n := int64(len(nodeIDs))
		nodeIDs[id] = n
		g.AddNode(simple.Node(n))
		return n
	}
	seen := make(map[string]int)

	type frame struct {
		concept *Concept
		path    []string
		parent  string
		depth   int
	}
	stack := []frame{{concept: &root}}
	count := 0
	tooDeepReported := false

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := f.concept

		count++
		if limits.MaxNodes > 0 && count > limits.MaxNodes {
			problems = append(problems, Problem{
				Kind:   ProblemTooMany,
				Detail: fmt.Sprintf("more than %d nodes", limits.MaxNodes),
			})
			break
		}

		path := append(append([]string(nil), f.path...), c.Label)

		if c.ID == "" {
			problems = append(problems, Problem{Kind: ProblemEmptyID, Path: path, Detail: "node has no id"})
		}
		if strings.TrimSpace(c.Label) == "" {
			problems = append(problems, Problem{Kind: ProblemEmptyLabel, ID: c.ID, Path: path, Detail: "node has no label"})
		}
		if c.ID != "" {
			seen[c.ID]++
			if seen[c.ID] == 2 {
				problems = append(problems, Problem{
					Kind:   ProblemDuplicateID,
					ID:     c.ID,
					Path:   path,
					Detail: fmt.Sprintf("id %q is used more than once", c.ID),
				})
			}
			idOf(c.ID)
			if f.parent != "" {
				if f.parent == c.ID {
					problems = append(problems, Problem{
						Kind:   ProblemCycle,
						ID:     c.ID,
						Path:   path,
						Detail: fmt.Sprintf("%s -> %s", c.ID, c.ID),
					})
				} else {
					g.SetEdge(g.NewEdge(simple.Node(idOf(f.parent)), simple.Node(idOf(c.ID))))
				}
			}
		}

		if limits.MaxDepth > 0 && f.depth >= limits.MaxDepth && len(c.Children) > 0 {
			if !tooDeepReported {
				problems = append(problems, Problem{
					Kind:   ProblemTooDeep,
					ID:     c.ID,
					Path:   path,
					Detail: fmt.Sprintf("children below depth %d are not allowed", limits.MaxDepth),
				})
				tooDeepReported = true
			}
			continue
		}

		for i := len(c.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				concept: &c.Children[i],
				path:    path,
				parent:  c.ID,
				depth:   f.depth + 1,
			})
		}
	}

	names := make(map[int64]string, len(nodeIDs))
	for id, n := range nodeIDs {
		names[n] = id
	}
	for _, cycle := range normalizeCycles(topo.DirectedCyclesIn(g), names) {
		problems = append(problems, Problem{
			Kind:   ProblemCycle,
			ID:     cycle[0],
			Detail: strings.Join(cycle, " -> ") + " -> " + cycle[0],
		})
	}

	return problems
}

// normalizeCycles maps gonum cycles to id lists, rotates each so its
// smallest id comes first and sorts them, so output is stable across runs.
func normalizeCycles(cycles [][]graph.Node, names map[int64]string) [][]string {
	var out [][]string
	for _, cycle := range cycles {
		ids := make([]string, 0, len(cycle))
		for _, n := range cycle {
			ids = append(ids, names[n.ID()])
		}
		// Johnson's algorithm closes the path by repeating the first node.
		if len(ids) > 1 && ids[0] == ids[len(ids)-1] {
			ids = ids[:len(ids)-1]
		}
		if len(ids) == 0 {
			continue
		}
		start := 0
		for i, id := range ids {
			if id < ids[start] {
				start = i
			}
		}
		rotated := make([]string, 0, len(ids))
		rotated = append(rotated, ids[start:]...)
		rotated = append(rotated, ids[:start]...)
		out = append(out, rotated)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i], "\x00") < strings.Join(out[j], "\x00")
	})
	return out
}
