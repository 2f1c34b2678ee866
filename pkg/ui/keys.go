package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the viewer responds to.
type KeyMap struct {
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Fullscreen  key.Binding
	Regenerate  key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	ClosePanel  key.Binding
	Copy        key.Binding
	Export      key.Binding
	Snapshot    key.Binding
	Recenter    key.Binding
	PanUp       key.Binding
	PanDown     key.Binding
	PanLeft     key.Binding
	PanRight    key.Binding
	NavUp       key.Binding
	NavDown     key.Binding
	NavLeft     key.Binding
	NavRight    key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap is the binding set used by NewModel.
var DefaultKeyMap = KeyMap{
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Fullscreen: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fullscreen"),
	),
	Regenerate: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "new topic"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "expand/collapse"),
	),
	ExpandAll: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "expand all"),
	),
	CollapseAll: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "collapse all"),
	),
	ClosePanel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close panel"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy explanation"),
	),
	Export: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "export json"),
	),
	Snapshot: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "snapshot all formats"),
	),
	Recenter: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "recenter"),
	),
	PanUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "pan up"),
	),
	PanDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "pan down"),
	),
	PanLeft: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "pan left"),
	),
	PanRight: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "pan right"),
	),
	NavUp: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "previous sibling"),
	),
	NavDown: key.NewBinding(
		key.WithKeys("j"),
		key.WithHelp("j", "next sibling"),
	),
	NavLeft: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "parent"),
	),
	NavRight: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "first child"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll panel"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll panel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ZoomIn, k.ZoomOut, k.Regenerate, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NavUp, k.NavDown, k.NavLeft, k.NavRight, k.Toggle, k.ExpandAll, k.CollapseAll},
		{k.PanUp, k.PanDown, k.PanLeft, k.PanRight, k.ZoomIn, k.ZoomOut, k.Recenter},
		{k.ClosePanel, k.ScrollUp, k.ScrollDown, k.Copy, k.Fullscreen},
		{k.Regenerate, k.Export, k.Snapshot, k.Help, k.Quit},
	}
}
