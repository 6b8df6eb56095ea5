package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Complete  key.Binding
	New       key.Binding
	Edit      key.Binding
	Archive   key.Binding
	Delete    key.Binding
	Presets   key.Binding
	Search    key.Binding
	Filter    key.Binding
	Sort      key.Binding
	TypeNext  key.Binding
	Backup    key.Binding
	Import    key.Binding
	Clear     key.Binding
	Dismiss   key.Binding
	Recommend key.Binding
	Mode      key.Binding
	Export    key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab4      key.Binding
	Tab5      key.Binding
	Tab       key.Binding
	Help      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Complete: key.NewBinding(
		key.WithKeys("c", " "),
		key.WithHelp("c", "complete"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Archive: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "archive/restore"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete"),
	),
	Presets: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "presets"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "status filter"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	TypeNext: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "type filter"),
	),
	Backup: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "backup"),
	),
	Import: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "import"),
	),
	Clear: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "clear all"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "dismiss"),
	),
	Recommend: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "add recommended"),
	),
	Mode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "switch mode"),
	),
	Export: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "export"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "dashboard"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "activities"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "test"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "reports"),
	),
	Tab5: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "settings"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.New, k.Edit, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Complete, k.New, k.Edit, k.Archive, k.Delete, k.Presets},
		{k.Search, k.Filter, k.Sort, k.TypeNext},
		{k.Backup, k.Import, k.Export, k.Clear, k.Dismiss, k.Recommend},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Mode},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
