package interaction_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model/modeltest"
)

func newScenarioController(t *testing.T) *interaction.Controller {
	t.Helper()
	tree := modeltest.MustTree(modeltest.Scenario())
	return interaction.New(layout.NewEngine(), tree, interaction.Size{W: 800, H: 600})
}

func pt(x, y float64) layout.Point { return layout.Point{X: x, Y: y} }

func TestNewCentersRoot(t *testing.T) {
	c := newScenarioController(t)
	f := c.Frame()
	if f.View.Zoom != interaction.DefaultZoom {
		t.Errorf("initial zoom = %v, want %v", f.View.Zoom, interaction.DefaultZoom)
	}
	if p, ok := f.Screen("root"); !ok || p != pt(400, 300) {
		t.Errorf("root screen position = %v (ok=%v), want (400,300)", p, ok)
	}
	if f.Mode != interaction.Idle {
		t.Errorf("initial mode = %v", f.Mode)
	}
	if len(f.Layout.Placements) != 5 {
		t.Errorf("expected all 5 nodes placed initially, got %d", len(f.Layout.Placements))
	}
}

func TestPanDrag(t *testing.T) {
	c := interaction.New(layout.NewEngine(), modeltest.MustTree(modeltest.Scenario()), interaction.Size{})

	c.PointerDown(pt(100, 100), interaction.Target{Kind: interaction.TargetCanvas})
	if c.Mode() != interaction.Panning {
		t.Fatalf("expected Panning after canvas press, got %v", c.Mode())
	}
	c.PointerMove(pt(150, 80))
	if got := c.View().Pan; got != pt(50, -20) {
		t.Errorf("pan during drag = %v, want (50,-20)", got)
	}
	c.PointerUp(pt(150, 80))
	if c.Mode() != interaction.Idle {
		t.Errorf("expected Idle after release, got %v", c.Mode())
	}
	if got := c.View().Pan; got != pt(50, -20) {
		t.Errorf("pan after release = %v, want (50,-20)", got)
	}

	// Moves after release do not pan
	c.PointerMove(pt(500, 500))
	if got := c.View().Pan; got != pt(50, -20) {
		t.Errorf("pan changed while idle: %v", got)
	}
}

func TestPanContinuesOutsideCanvas(t *testing.T) {
	c := newScenarioController(t)
	c.PointerDown(pt(10, 10), interaction.Target{Kind: interaction.TargetCanvas})
	c.PointerMove(pt(-200, 900))
	if got, want := c.View().Pan, pt(400-210, 300+890); got != want {
		t.Errorf("pan = %v, want %v", got, want)
	}
}

func TestPointerDownOutsideIsIgnored(t *testing.T) {
	c := newScenarioController(t)
	before := c.Frame()
	c.PointerDown(pt(-5, -5), interaction.Target{Kind: interaction.TargetOutside})
	if c.Mode() != interaction.Idle {
		t.Errorf("press outside canvas started %v", c.Mode())
	}
	if c.Frame().View != before.View || c.Selected() != "" {
		t.Error("press outside canvas changed state")
	}
}

func TestNodeClickSelectsWithoutPanning(t *testing.T) {
	c := newScenarioController(t)
	c.PointerDown(pt(10, 10), interaction.Target{Kind: interaction.TargetNode, ID: "A"})
	if c.Mode() != interaction.Idle {
		t.Errorf("node press started %v", c.Mode())
	}
	if c.Selected() != "A" {
		t.Errorf("selected = %q, want A", c.Selected())
	}
	c.PointerMove(pt(300, 300))
	if got := c.View().Pan; got != pt(400, 300) {
		t.Errorf("node press followed by move panned to %v", got)
	}
}

func TestSelectionIsSingle(t *testing.T) {
	c := newScenarioController(t)
	c.Select("A")
	c.Select("B")
	if c.Frame().Selected != "B" {
		t.Errorf("selected = %q, want B", c.Frame().Selected)
	}
	c.Select("missing")
	if c.Frame().Selected != "B" {
		t.Errorf("unknown id changed selection to %q", c.Frame().Selected)
	}
	c.ClosePanel()
	if c.Frame().Selected != "" {
		t.Errorf("ClosePanel left selection %q", c.Frame().Selected)
	}
}

func TestPanelCloseTarget(t *testing.T) {
	c := newScenarioController(t)
	c.Select("A1")
	c.PointerDown(pt(0, 0), interaction.Target{Kind: interaction.TargetPanel})
	if c.Selected() != "A1" {
		t.Errorf("panel body click cleared selection")
	}
	c.PointerDown(pt(0, 0), interaction.Target{Kind: interaction.TargetPanelClose})
	if c.Selected() != "" {
		t.Errorf("panel close left selection %q", c.Selected())
	}
}

func TestToggleExpand(t *testing.T) {
	c := newScenarioController(t)

	c.PointerDown(pt(0, 0), interaction.Target{Kind: interaction.TargetToggle, ID: "A"})
	f := c.Frame()
	if f.Expanded.IsExpanded("A") {
		t.Error("expected A collapsed")
	}
	if f.Layout.Has("A1") || f.Layout.Has("A2") {
		t.Error("children of collapsed A still placed")
	}
	if !f.Layout.Has("A") || !f.Layout.Has("B") {
		t.Error("collapse hid nodes outside A's subtree")
	}

	c.ToggleExpand("A")
	if !c.Frame().Layout.Has("A1") {
		t.Error("expected A1 placed after re-expanding A")
	}
}

func TestToggleLeafIsNoop(t *testing.T) {
	c := newScenarioController(t)
	c.ToggleExpand("B")
	c.ToggleExpand("missing")
	if got := c.Frame().Expanded.Collapsed(); len(got) != 0 {
		t.Errorf("toggling a leaf or unknown id collapsed %v", got)
	}
}

func TestZoomClamps(t *testing.T) {
	c := newScenarioController(t)
	for i := 0; i < 20; i++ {
		c.ZoomIn()
	}
	if z := c.View().Zoom; z != interaction.MaxZoom {
		t.Errorf("zoom after many ZoomIn = %v, want %v", z, interaction.MaxZoom)
	}
	for i := 0; i < 30; i++ {
		c.ZoomOut()
	}
	if z := c.View().Zoom; z != interaction.MinZoom {
		t.Errorf("zoom after many ZoomOut = %v, want %v", z, interaction.MinZoom)
	}
	c.ZoomIn()
	if z := c.View().Zoom; z != 0.6 {
		t.Errorf("zoom = %v, want 0.6", z)
	}
	if got := c.Frame().Layout.Zoom; got != 0.6 {
		t.Errorf("layout zoom = %v, want 0.6", got)
	}
}

func TestWithZoom(t *testing.T) {
	tree := modeltest.MustTree(modeltest.Scenario())
	for _, tt := range []struct{ in, want float64 }{{1.5, 1.5}, {9, interaction.MaxZoom}, {0.1, interaction.MinZoom}} {
		c := interaction.New(layout.NewEngine(), tree, interaction.Size{W: 800, H: 600}, interaction.WithZoom(tt.in))
		if got := c.Frame().Layout.Zoom; got != tt.want {
			t.Errorf("WithZoom(%v): layout zoom = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStepZoomTable(t *testing.T) {
	tests := []struct {
		zoom, delta, want float64
	}{
		{1.0, 0.1, 1.1},
		{1.9, 0.1, 2.0},
		{2.0, 0.1, 2.0},
		{0.5, -0.1, 0.5},
		{0.6, -0.1, 0.5},
	}
	for _, tt := range tests {
		if got := interaction.StepZoom(tt.zoom, tt.delta); got != tt.want {
			t.Errorf("StepZoom(%v, %v) = %v, want %v", tt.zoom, tt.delta, got, tt.want)
		}
	}
}

func TestResetDiscardsState(t *testing.T) {
	c := newScenarioController(t)
	c.ToggleExpand("A")
	c.Select("B")
	c.ZoomIn()
	c.PointerDown(pt(0, 0), interaction.Target{Kind: interaction.TargetCanvas})
	c.PointerMove(pt(40, 40))

	next := modeltest.MustTree(modeltest.Chain(3))
	c.Reset(next)

	f := c.Frame()
	if f.Mode != interaction.Idle || f.Selected != "" || f.Hovered != "" {
		t.Errorf("reset left mode=%v selected=%q hovered=%q", f.Mode, f.Selected, f.Hovered)
	}
	if f.View.Zoom != interaction.DefaultZoom || f.View.Pan != pt(400, 300) {
		t.Errorf("reset view = %+v", f.View)
	}
	if len(f.Expanded.Collapsed()) != 0 {
		t.Errorf("reset kept collapsed %v", f.Expanded.Collapsed())
	}
	if !f.Layout.Has("n3") || f.Layout.Has("A") {
		t.Errorf("layout does not reflect the new tree: %v", f.Layout.Order)
	}
}

func TestResizeKeepsRootCenteredUntilPanned(t *testing.T) {
	c := interaction.New(layout.NewEngine(), modeltest.MustTree(modeltest.Scenario()), interaction.Size{})
	c.Resize(1000, 500)
	if got := c.View().Pan; got != pt(500, 250) {
		t.Errorf("pan after first resize = %v", got)
	}

	c.Pan(pt(10, 0))
	c.Resize(200, 100)
	if got := c.View().Pan; got != pt(510, 250) {
		t.Errorf("resize after panning moved the view to %v", got)
	}

	c.Recenter()
	if got := c.View().Pan; got != pt(100, 50) {
		t.Errorf("recenter = %v", got)
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	c := newScenarioController(t)
	c.CollapseAll()
	f := c.Frame()
	if len(f.Layout.Placements) != 1 || !f.Layout.Has("root") {
		t.Errorf("CollapseAll placed %v", f.Layout.Order)
	}
	if got := f.Expanded.Collapsed(); len(got) != 2 {
		t.Errorf("expected root and A collapsed, got %v", got)
	}
	c.ExpandAll()
	if n := len(c.Frame().Layout.Placements); n != 5 {
		t.Errorf("ExpandAll placed %d nodes", n)
	}
}

func TestHoverIgnoresUnknownIDs(t *testing.T) {
	c := newScenarioController(t)
	c.Hover("A")
	if c.Frame().Hovered != "A" {
		t.Errorf("hovered = %q", c.Frame().Hovered)
	}
	c.Hover("nope")
	if c.Frame().Hovered != "" {
		t.Errorf("unknown hover kept %q", c.Frame().Hovered)
	}
}

func TestNavigate(t *testing.T) {
	c := newScenarioController(t)

	steps := []struct {
		dir  interaction.Direction
		want string
	}{
		{interaction.Down, "root"}, // nothing selected: select root
		{interaction.Right, "A"},
		{interaction.Down, "B"},
		{interaction.Down, "B"}, // last sibling
		{interaction.Up, "A"},
		{interaction.Right, "A1"},
		{interaction.Left, "A"}, // leaf: jump to parent
	}
	for i, s := range steps {
		c.Navigate(s.dir)
		if c.Selected() != s.want {
			t.Fatalf("step %d: selected %q, want %q", i, c.Selected(), s.want)
		}
	}

	// Left on an expanded node collapses it first
	c.Navigate(interaction.Left)
	if c.Selected() != "A" || c.Frame().Expanded.IsExpanded("A") {
		t.Errorf("expected A collapsed and still selected")
	}
	// Right on a collapsed node expands it first
	c.Navigate(interaction.Right)
	if c.Selected() != "A" || !c.Frame().Expanded.IsExpanded("A") {
		t.Errorf("expected A expanded and still selected")
	}
}

func TestObserverSeesEveryFrame(t *testing.T) {
	var frames []interaction.Frame
	c := interaction.New(layout.NewEngine(), modeltest.MustTree(modeltest.Scenario()),
		interaction.Size{W: 100, H: 100},
		interaction.WithObserver(func(f interaction.Frame) { frames = append(frames, f) }))

	c.ZoomIn()
	c.ToggleFullscreen()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[1].View.Zoom != 1.1 || !frames[2].Fullscreen {
		t.Errorf("frames out of sync with state: %+v", frames)
	}
}

func TestNilTreeIsSafe(t *testing.T) {
	c := interaction.New(layout.NewEngine(), nil, interaction.Size{W: 10, H: 10})
	c.Select("x")
	c.ToggleExpand("x")
	c.CollapseAll()
	c.Navigate(interaction.Right)
	if len(c.Frame().Layout.Placements) != 0 || c.Selected() != "" {
		t.Errorf("nil tree produced state: %+v", c.Frame())
	}
}

// TestControllerInvariants drives random event sequences and checks that
// zoom stays in range, the selection names a node, and the frame layout
// matches a fresh layout of the published state.
func TestControllerInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := modeltest.MustTree(modeltest.Concept(3, 4).Draw(t, "tree"))
		ids := tree.IDs()
		c := interaction.New(layout.NewEngine(), tree, interaction.Size{W: 640, H: 480})
		coord := rapid.Float64Range(-1000, 1000)

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 9).Draw(t, "event") {
			case 0:
				c.ZoomIn()
			case 1:
				c.ZoomOut()
			case 2:
				c.ToggleExpand(rapid.SampledFrom(ids).Draw(t, "id"))
			case 3:
				c.Select(rapid.SampledFrom(ids).Draw(t, "id"))
			case 4:
				c.PointerDown(pt(coord.Draw(t, "x"), coord.Draw(t, "y")), interaction.Target{Kind: interaction.TargetCanvas})
			case 5:
				c.PointerMove(pt(coord.Draw(t, "x"), coord.Draw(t, "y")))
			case 6:
				c.PointerUp(layout.Point{})
			case 7:
				c.ClosePanel()
			case 8:
				c.Navigate(interaction.Direction(rapid.IntRange(0, 3).Draw(t, "dir")))
			case 9:
				c.CollapseAll()
			}

			f := c.Frame()
			if f.View.Zoom < interaction.MinZoom || f.View.Zoom > interaction.MaxZoom {
				t.Fatalf("zoom %v out of range", f.View.Zoom)
			}
			if f.Selected != "" && !tree.Contains(f.Selected) {
				t.Fatalf("selection %q is not a tree node", f.Selected)
			}
			fresh := layout.NewEngine().Layout(tree, f.Expanded, f.View.Zoom)
			if len(fresh.Placements) != len(f.Layout.Placements) {
				t.Fatalf("frame layout is stale: %d vs %d placements", len(f.Layout.Placements), len(fresh.Placements))
			}
			for id, p := range fresh.Placements {
				if f.Layout.Placements[id] != p {
					t.Fatalf("frame placement for %s is stale", id)
				}
			}
		}
	})
}
