package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// tableKeys are the shortcuts handled before the table sees a key.
type tableKeys struct {
	Move        key.Binding
	Respond     key.Binding
	Refresh     key.Binding
	Filter      key.Binding
	Scroll      key.Binding
	Dismiss     key.Binding
	BackToDraft key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

type filterKeys struct {
	Keep  key.Binding
	Clear key.Binding
}

type draftKeys struct {
	Submit  key.Binding
	Discard key.Binding
	Leave   key.Binding
}

type keyMap struct {
	Table  tableKeys
	Filter filterKeys
	Draft  draftKeys
}

func defaultKeyMap() keyMap {
	return keyMap{
		Table: tableKeys{
			Move:        key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "move")),
			Respond:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "respond")),
			Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
			Scroll:      key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll details")),
			Dismiss:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
			BackToDraft: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "back to draft")),
			Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard draft")),
			Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
			Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		Filter: filterKeys{
			Keep:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep filter")),
			Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		},
		Draft: draftKeys{
			Submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit response")),
			Discard: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard draft")),
			Leave:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "back to list")),
		},
	}
}

// setSession disables the table bindings that do not apply in the current session state, so
// they neither match nor render.
func (k *keyMap) setSession(drafting, generating bool) {
	k.Table.BackToDraft.SetEnabled(drafting)
	k.Table.Cancel.SetEnabled(drafting || generating)
}

// legend groups the bindings for the focused area into help columns.
func (k keyMap) legend(focus focusArea) [][]key.Binding {
	switch focus {
	case focusFilter:
		return [][]key.Binding{{k.Filter.Keep, k.Filter.Clear}}
	case focusDraft:
		return [][]key.Binding{{k.Draft.Submit, k.Draft.Discard, k.Draft.Leave}}
	}
	t := k.Table
	return [][]key.Binding{
		{t.Move, t.Respond, t.Refresh},
		{t.Filter, t.Scroll, t.Dismiss},
		{t.BackToDraft, t.Cancel, t.Help, t.Quit},
	}
}
