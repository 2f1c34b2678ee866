// Package modeltest provides concept tree fixtures and rapid generators
// shared by the tests of the packages that consume pkg/model.
package modeltest

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// Scenario returns the reference tree: root with children [A, B], where A
// has children [A1, A2].
func Scenario() model.Concept {
	return model.Concept{
		ID:          "root",
		Label:       "Root",
		Explanation: "The topic itself.",
		Children: []model.Concept{
			{
				ID:          "A",
				Label:       "A",
				Explanation: "First branch.",
				Children: []model.Concept{
					{ID: "A1", Label: "A1", Explanation: "First leaf of A."},
					{ID: "A2", Label: "A2"},
				},
			},
			{ID: "B", Label: "B", Explanation: "Second branch."},
		},
	}
}

// MustTree indexes c with default limits and panics on error. Fixtures
// passed here are expected to be valid.
func MustTree(c model.Concept) *model.Tree {
	t, err := model.NewTree(c, model.DefaultLimits())
	if err != nil {
		panic(fmt.Sprintf("modeltest: invalid fixture: %v", err))
	}
	return t
}

// Chain returns a single path of depth n (n+1 nodes).
func Chain(n int) model.Concept {
	root := model.Concept{ID: "n0", Label: "n0"}
	cur := &root
	for i := 1; i <= n; i++ {
		cur.Children = []model.Concept{{ID: fmt.Sprintf("n%d", i), Label: fmt.Sprintf("n%d", i)}}
		cur = &cur.Children[0]
	}
	return root
}

// Concept draws a random valid concept tree with globally unique ids,
// at most maxDepth levels below the root and maxChildren per node.
func Concept(maxDepth, maxChildren int) *rapid.Generator[model.Concept] {
	return rapid.Custom(func(t *rapid.T) model.Concept {
		next := 0
		var build func(depth int) model.Concept
		build = func(depth int) model.Concept {
			id := fmt.Sprintf("c%d", next)
			next++
			c := model.Concept{
				ID:          id,
				Label:       rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,15}`).Draw(t, "label"),
				Explanation: rapid.SampledFrom([]string{"", "", "Short note.", "A longer *markdown* explanation."}).Draw(t, "explanation"),
			}
			if depth >= maxDepth {
				return c
			}
			k := rapid.IntRange(0, maxChildren).Draw(t, "children")
			for i := 0; i < k; i++ {
				c.Children = append(c.Children, build(depth+1))
			}
			return c
		}
		return build(0)
	})
}
