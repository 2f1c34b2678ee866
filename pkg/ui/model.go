// Package ui hosts the mind map in a terminal. It maps mouse and keyboard
// input onto an interaction.Controller and draws render scenes as cells.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/export"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/generator"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// Arrow keys pan by this many cells.
const (
	panCols = 4
	panRows = 2
)

// TreeReadyMsg delivers a freshly generated or reloaded tree.
type TreeReadyMsg struct {
	Topic string
	Tree  *model.Tree
	// Seq ties the result to the request that produced it; zero for
	// reloads, which are always applied.
	Seq    int
	Source string
}

// GenerationErrorMsg reports a failed generation or reload. The current
// tree stays on screen.
type GenerationErrorMsg struct {
	Topic string
	Err   error
	Seq   int
}

// ExportDoneMsg reports the files written by an export.
type ExportDoneMsg struct {
	Paths []string
	Err   error
}

// Option configures a Model.
type Option func(*Model)

// WithGenerator sets the collaborator used for new topics.
func WithGenerator(g generator.Generator) Option {
	return func(m *Model) { m.gen = g }
}

// WithTopic names the topic of the initial tree, or the topic to generate
// on start when no tree is given.
func WithTopic(topic string) Option {
	return func(m *Model) { m.topic = topic }
}

// WithEngine sets the layout spacing.
func WithEngine(e layout.Engine) Option {
	return func(m *Model) { m.engine = e }
}

// WithStyle sets the scene style.
func WithStyle(s render.Style) Option {
	return func(m *Model) { m.style = s }
}

// WithLimits bounds generated trees.
func WithLimits(l model.Limits) Option {
	return func(m *Model) { m.limits = l }
}

// WithExportDir sets where exports are written.
func WithExportDir(dir string) Option {
	return func(m *Model) { m.exportDir = dir }
}

// WithLogger sets the logger. The terminal is owned by the program, so the
// logger should write to a file.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyText = fn }
}

// Model is the bubbletea model for the viewer.
type Model struct {
	ctrl   *interaction.Controller
	scene  *render.Scene
	engine layout.Engine
	style  render.Style
	limits model.Limits

	gen        generator.Generator
	topic      string
	seq        int
	generating bool
	pending    string

	exportDir string
	copyText  func(string) error
	logger    *slog.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	panel   *explanationPanel
	prompt  *huh.Form

	status      string
	statusError bool

	ready  bool
	width  int
	height int
}

// NewModel builds a viewer for tree, which may be nil when the first tree
// is to be generated from the WithTopic topic.
func NewModel(tree *model.Tree, opts ...Option) Model {
	m := Model{
		engine:    layout.NewEngine(),
		style:     render.DefaultStyle(),
		limits:    model.DefaultLimits(),
		exportDir: ".",
		copyText:  clipboard.WriteAll,
		logger:    slog.Default(),
		keys:      DefaultKeyMap,
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		panel:     &explanationPanel{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.ctrl = interaction.New(m.engine, tree, interaction.Size{}, interaction.WithLogger(m.logger))
	if m.topic == "" && tree != nil {
		m.topic = tree.Root().Label
	}
	if tree == nil && m.topic != "" && m.gen != nil {
		m.beginRequest(m.topic)
	}
	m.refresh()
	return m
}

// Init starts the first generation when the model was created without a tree.
func (m Model) Init() tea.Cmd {
	if m.generating {
		return tea.Batch(m.spinner.Tick, generateCmd(m.gen, m.pending, m.limits, m.seq))
	}
	return nil
}

func (m *Model) beginRequest(topic string) {
	m.seq++
	m.generating = true
	m.pending = topic
	m.setStatus(fmt.Sprintf("Generating %q", topic), false)
}

// startGeneration must be called on the Model that will be returned from
// Update, since it bumps the request sequence.
func (m *Model) startGeneration(topic string) tea.Cmd {
	m.beginRequest(topic)
	return tea.Batch(m.spinner.Tick, generateCmd(m.gen, topic, m.limits, m.seq))
}

func generateCmd(g generator.Generator, topic string, limits model.Limits, seq int) tea.Cmd {
	return func() tea.Msg {
		tree, err := generator.Build(context.Background(), g, topic, limits)
		if err != nil {
			return GenerationErrorMsg{Topic: topic, Err: err, Seq: seq}
		}
		return TreeReadyMsg{Topic: topic, Tree: tree, Seq: seq}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.syncViewport()

	case TreeReadyMsg:
		if msg.Seq != 0 && msg.Seq != m.seq {
			m.logger.Debug("dropping stale generation", "topic", msg.Topic, "seq", msg.Seq)
			break
		}
		if msg.Seq != 0 {
			m.generating = false
		}
		m.topic = msg.Topic
		m.ctrl.Reset(msg.Tree)
		m.setStatus(fmt.Sprintf("%s: %d concepts", msg.Topic, msg.Tree.Len()), false)

	case GenerationErrorMsg:
		if msg.Seq != 0 && msg.Seq != m.seq {
			break
		}
		if msg.Seq != 0 {
			m.generating = false
		}
		m.logger.Warn("generation failed", "topic", msg.Topic, "err", msg.Err)
		m.setStatus(fmt.Sprintf("Generation failed: %v", msg.Err), true)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.logger.Warn("export failed", "err", msg.Err)
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
			break
		}
		m.setStatus("Saved "+strings.Join(msg.Paths, ", "), false)

	case spinner.TickMsg:
		if m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if m.prompt == nil {
			m.handleMouse(msg)
		}

	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		if cmd, quit := m.handleKey(msg); quit {
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.prompt = nil
		return m, nil
	}
	form, cmd := m.prompt.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.prompt = f
	}
	switch m.prompt.State {
	case huh.StateCompleted:
		topic := strings.TrimSpace(m.prompt.GetString("topic"))
		m.prompt = nil
		return m, m.startGeneration(topic)
	case huh.StateAborted:
		m.prompt = nil
		return m, nil
	}
	return m, cmd
}

func newTopicForm(current string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("topic").
				Title("Topic").
				Description("Generate a new mind map").
				Placeholder(current).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return generator.ErrEmptyTopic
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithWidth(50)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.syncViewport()
	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.ZoomOut()
	case key.Matches(msg, m.keys.Fullscreen):
		m.ctrl.ToggleFullscreen()
		m.syncViewport()
	case key.Matches(msg, m.keys.Regenerate):
		if m.gen == nil {
			m.setStatus("No generator configured", true)
			return nil, false
		}
		m.prompt = newTopicForm(m.topic)
		return m.prompt.Init(), false
	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.ToggleExpand(m.ctrl.Selected())
	case key.Matches(msg, m.keys.ExpandAll):
		m.ctrl.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.ctrl.CollapseAll()
	case key.Matches(msg, m.keys.ClosePanel):
		m.ctrl.ClosePanel()
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Export):
		return m.exportJSON(), false
	case key.Matches(msg, m.keys.Snapshot):
		return m.exportSnapshot(), false
	case key.Matches(msg, m.keys.Recenter):
		m.ctrl.Recenter()
	case key.Matches(msg, m.keys.PanUp):
		m.ctrl.Pan(layout.Point{Y: panRows * CellHeight})
	case key.Matches(msg, m.keys.PanDown):
		m.ctrl.Pan(layout.Point{Y: -panRows * CellHeight})
	case key.Matches(msg, m.keys.PanLeft):
		m.ctrl.Pan(layout.Point{X: panCols * CellWidth})
	case key.Matches(msg, m.keys.PanRight):
		m.ctrl.Pan(layout.Point{X: -panCols * CellWidth})
	case key.Matches(msg, m.keys.NavUp):
		m.ctrl.Navigate(interaction.Up)
	case key.Matches(msg, m.keys.NavDown):
		m.ctrl.Navigate(interaction.Down)
	case key.Matches(msg, m.keys.NavLeft):
		m.ctrl.Navigate(interaction.Left)
	case key.Matches(msg, m.keys.NavRight):
		m.ctrl.Navigate(interaction.Right)
	case key.Matches(msg, m.keys.ScrollUp):
		m.panel.ScrollUp(3)
	case key.Matches(msg, m.keys.ScrollDown):
		m.panel.ScrollDown(3)
	}
	return nil, false
}

// handleMouse routes a terminal mouse event through the scene hit test.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := PointOf(msg.X, msg.Y)
	target := panelTarget(m.scene.Panel, msg.X, msg.Y, m.scene.HitTest(p))

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if target.Kind == interaction.TargetPanel {
			m.panel.ScrollUp(1)
		} else {
			m.ctrl.ZoomIn()
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if target.Kind == interaction.TargetPanel {
			m.panel.ScrollDown(1)
		} else {
			m.ctrl.ZoomOut()
		}
	case msg.Action == tea.MouseActionRelease:
		m.ctrl.PointerUp(p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.ctrl.PointerDown(p, target)
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonNone:
		switch target.Kind {
		case interaction.TargetNode, interaction.TargetToggle:
			m.ctrl.Hover(target.ID)
		default:
			m.ctrl.Hover("")
		}
	case msg.Action == tea.MouseActionMotion:
		m.ctrl.PointerMove(p)
	}
}

func (m *Model) copySelection() {
	node, ok := m.ctrl.Tree().Node(m.ctrl.Selected())
	if !ok {
		m.setStatus("Select a concept to copy its explanation", true)
		return
	}
	text := strings.TrimSpace(node.Explanation)
	if text == "" {
		m.setStatus(fmt.Sprintf("%s has no explanation", node.Label), true)
		return
	}
	if err := m.copyText(text); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied explanation of %s", node.Label), false)
}

func (m *Model) exportJSON() tea.Cmd {
	tree := m.ctrl.Tree()
	if tree == nil {
		m.setStatus("Nothing to export", true)
		return nil
	}
	dir, topic, concept := m.exportDir, m.topic, tree.Concept()
	return func() tea.Msg {
		path, err := export.SaveJSON(dir, topic, concept)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		return ExportDoneMsg{Paths: []string{path}}
	}
}

func (m *Model) exportSnapshot() tea.Cmd {
	tree := m.ctrl.Tree()
	if tree == nil {
		m.setStatus("Nothing to export", true)
		return nil
	}
	opts := export.SnapshotOptions{
		Dir:   m.exportDir,
		Topic: m.topic,
		Tree:  tree,
		Scene: m.scene,
	}
	return func() tea.Msg {
		paths, err := export.Snapshot(context.Background(), opts)
		return ExportDoneMsg{Paths: paths, Err: err}
	}
}

func (m *Model) setStatus(s string, isError bool) {
	m.status = s
	m.statusError = isError
}

// footerHeight is zero in fullscreen, otherwise the status line plus help.
func (m *Model) footerHeight() int {
	if m.ctrl.Frame().Fullscreen {
		return 0
	}
	return 1 + lipgloss.Height(m.help.View(m.keys))
}

func (m *Model) canvasRows() int {
	rows := m.height - m.footerHeight()
	if rows < 0 {
		return 0
	}
	return rows
}

// syncViewport tells the controller how many pixels the canvas covers.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.ctrl.Resize(float64(m.width*CellWidth), float64(m.canvasRows()*CellHeight))
}

// refresh rebuilds the scene from the controller's latest frame.
func (m *Model) refresh() {
	m.scene = render.Build(m.ctrl.Tree(), m.ctrl.Frame(), m.style)
	m.panel.sync(m.scene.Panel)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	cols, rows := m.width, m.canvasRows()

	var body string
	switch {
	case m.prompt != nil:
		box := PanelStyle.Padding(1, 2).Render(m.prompt.View())
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, box)
	case m.ctrl.Tree() == nil:
		text := "No mind map loaded. Press r to choose a topic."
		if m.generating {
			text = m.spinner.View() + " Generating " + m.pending + "..."
		}
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorSubtext).Render(text))
	default:
		canvas := DrawScene(m.scene, cols, rows)
		var overlays []Overlay
		if p := m.scene.Panel; p != nil {
			col, row, _, _ := panelCells(p)
			overlays = append(overlays, Overlay{Col: col, Row: row, Block: m.panel.View(p)})
		}
		body = canvas.Compose(overlays...)
	}

	if m.ctrl.Frame().Fullscreen {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter(), m.help.View(m.keys))
}

func (m *Model) renderFooter() string {
	topicStyle := lipgloss.NewStyle().Foreground(ColorBg).Background(ColorPrimary).Bold(true).Padding(0, 1)
	infoStyle := lipgloss.NewStyle().Foreground(ColorText).Background(ColorBgHighlight).Padding(0, 1)
	statusStyle := lipgloss.NewStyle().Foreground(ColorSubtext).Padding(0, 1)
	if m.statusError {
		statusStyle = statusStyle.Foreground(ColorError)
	}

	topic := m.topic
	if topic == "" {
		topic = "mind map"
	}
	view := m.ctrl.View()
	info := fmt.Sprintf("zoom %.1fx", view.Zoom)
	if m.ctrl.Mode() == interaction.Panning {
		info += " • panning"
	}
	if node, ok := m.ctrl.Tree().Node(m.ctrl.Selected()); ok {
		info += " • " + node.Label
	}

	status := m.status
	if m.generating {
		status = m.spinner.View() + " " + status
	}

	left := topicStyle.Render(topic) + infoStyle.Render(info)
	remaining := m.width - lipgloss.Width(left)
	if remaining < 0 {
		remaining = 0
	}
	right := statusStyle.Width(remaining).MaxWidth(remaining).Render(status)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(left + right)
}

// Controller exposes the interaction controller (for tests and embedding).
func (m Model) Controller() *interaction.Controller { return m.ctrl }

// Scene returns the scene drawn by the last View.
func (m Model) Scene() *render.Scene { return m.scene }

// Topic returns the topic of the tree on screen.
func (m Model) Topic() string { return m.topic }

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusError }

// Prompting reports whether the topic prompt is open.
func (m Model) Prompting() bool { return m.prompt != nil }

// Generating reports whether a generation request is in flight.
func (m Model) Generating() bool { return m.generating }
