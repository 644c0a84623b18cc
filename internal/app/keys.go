package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/milvus-admin/console/internal/views/help"
)

// KeyMap defines all keyboard bindings for the console.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Quit       key.Binding
	Connect    key.Binding
	Disconnect key.Binding
	Refresh    key.Binding
	Load       key.Binding
	Release    key.Binding
	Drop       key.Binding
	Rename     key.Binding
	Create     key.Binding
	Compact    key.Binding
	DropIndex  key.Binding
	Indexing   key.Binding
	Debug      key.Binding
	Help       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Filter     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev collection"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next collection"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "collection detail"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Connect: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "connect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "disconnect and forget endpoint"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh now"),
		),
		Load: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "load collection"),
		),
		Release: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "release collection"),
		),
		Drop: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "drop collection"),
		),
		Rename: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "rename collection"),
		),
		Create: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "create collection"),
		),
		Compact: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "compact collection"),
		),
		DropIndex: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "drop index"),
		),
		Indexing: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "index build progress"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll log up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll log down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "log: failures only"),
		),
	}
}

// HelpSections groups the bindings for the help overlay.
func (k KeyMap) HelpSections() []help.Section {
	return []help.Section{
		{Title: "Navigation", Bindings: []key.Binding{k.Up, k.Down, k.Enter, k.Escape, k.Quit}},
		{Title: "Session", Bindings: []key.Binding{k.Connect, k.Disconnect, k.Refresh}},
		{Title: "Collection actions", Bindings: []key.Binding{
			k.Load, k.Release, k.Drop, k.Rename, k.Create, k.Compact, k.DropIndex,
		}},
		{Title: "Panels", Bindings: []key.Binding{k.Indexing, k.Debug, k.Help, k.PageUp, k.PageDown, k.Filter}},
	}
}
