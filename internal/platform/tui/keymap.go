package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings of the play screen.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Pick      key.Binding
	Cancel    key.Binding
	Spawn     key.Binding
	AutoMerge key.Binding
	Upgrade   key.Binding
	Gems      key.Binding
	Boost     key.Binding
	NextPanel key.Binding
	PrevPanel key.Binding
	Reset     key.Binding
	Confirm   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.Spawn, k.AutoMerge, k.Upgrade, k.NextPanel, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Pick, k.Cancel, k.Spawn, k.AutoMerge},
		{k.Upgrade, k.Gems, k.Boost},
		{k.NextPanel, k.PrevPanel, k.Reset, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "right"),
		),
		Pick: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "pick/drop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Spawn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "spawn"),
		),
		AutoMerge: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "merge pair"),
		),
		Upgrade: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6"),
			key.WithHelp("1-6", "upgrade"),
		),
		Gems: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "unlock gems"),
		),
		Boost: key.NewBinding(
			key.WithKeys("z", "x", "c"),
			key.WithHelp("z/x/c", "boosts"),
		),
		NextPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		PrevPanel: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev panel"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
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
}

// upgradeIndex maps an upgrade key ("1"-"6") to its position in the upgrade menu.
func upgradeIndex(k string) (int, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '6' {
		return 0, false
	}
	return int(k[0] - '1'), true
}

// boostForKey maps the boost keys to their boost type names.
var boostForKey = map[string]string{
	"z": "AUTO_MERGE",
	"x": "DOUBLE_INCOME",
	"c": "AUTO_SPAWN",
}
